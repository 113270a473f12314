// Package placeholder computes BlurHash placeholders for catalog background images.
package placeholder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/gameshelf/gameshelf-server/internal/cache"
)

const (
	// maxImageSize limits download size to prevent memory exhaustion.
	maxImageSize = 10 * 1024 * 1024

	fetchTimeout = 20 * time.Second

	// thumbSize is the longest edge of the image the hash is computed from.
	thumbSize = 64

	// Components per axis. Background art is landscape.
	xComponents = 4
	yComponents = 3
)

var (
	// ErrNoImage is returned for an empty image URL.
	ErrNoImage = errors.New("placeholder: no image")
	// ErrFetch is returned when the image host does not serve the image.
	ErrFetch = errors.New("placeholder: fetch failed")
	// ErrTooLarge is returned for images over the download limit.
	ErrTooLarge = errors.New("placeholder: image too large")
)

// Generator fetches images and hashes them, caching hashes by URL.
type Generator struct {
	http   *http.Client
	cache  *cache.Cache[string]
	logger *slog.Logger
}

// New creates a Generator. A nil cache disables caching.
func New(c *cache.Cache[string], logger *slog.Logger) *Generator {
	return &Generator{
		http:   &http.Client{Timeout: fetchTimeout},
		cache:  c,
		logger: logger,
	}
}

// Compute returns the BlurHash of the image at url.
func (g *Generator) Compute(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", ErrNoImage
	}
	if hash, ok := g.cache.Get(url); ok {
		return hash, nil
	}

	img, err := g.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	hash, err := Encode(img)
	if err != nil {
		return "", err
	}

	g.cache.Set(url, hash)
	g.logger.Debug("computed placeholder", "url", url, "hash", hash)
	return hash, nil
}

func (g *Generator) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	if resp.ContentLength > maxImageSize {
		return nil, ErrTooLarge
	}

	// Read one byte past the limit so oversized bodies without a length are caught.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if len(data) > maxImageSize {
		return nil, ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode hashes an already decoded image.
func Encode(img image.Image) (string, error) {
	hash, err := blurhash.Encode(xComponents, yComponents, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img down with nearest-neighbour sampling so its longest
// edge is thumbSize. Smaller images are returned as is.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= thumbSize && srcH <= thumbSize {
		return img
	}

	dstW, dstH := thumbSize, thumbSize
	if srcW > srcH {
		dstH = max(srcH*thumbSize/srcW, 1)
	} else {
		dstW = max(srcW*thumbSize/srcH, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		for x := range dstW {
			dst.Set(x, y, img.At(bounds.Min.X+x*srcW/dstW, bounds.Min.Y+y*srcH/dstH))
		}
	}
	return dst
}

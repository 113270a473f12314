package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()

	w, err := New(testLogger(), Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Watch(path))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	t.Cleanup(func() {
		cancel()
		w.Stop() //nolint:errcheck // Test cleanup
	})
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestNew_Stop(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "second Stop is a no-op")
	assert.ErrorIs(t, w.Watch(filepath.Join(t.TempDir(), "x.json")), ErrStopped)
}

func TestNew_DefaultSettleDelay(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	assert.Equal(t, DefaultSettleDelay, w.opts.SettleDelay)
}

func TestWatcher_Watch_MissingDir(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	err = w.Watch(filepath.Join(t.TempDir(), "missing", "x.json"))
	assert.Error(t, err)
}

func TestWatcher_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameCollection.json")
	w := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	ev := waitEvent(t, w)
	assert.Equal(t, OpChanged, ev.Op)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, int64(2), ev.Size)
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gameCollection.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	w := startWatcher(t, path)

	tmp := filepath.Join(dir, ".tmp-1")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"id":1}]`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	ev := waitEvent(t, w)
	assert.Equal(t, OpChanged, ev.Op)
	assert.Equal(t, path, ev.Path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gameCollection.json")
	w := startWatcher(t, path)

	for _, name := range []string{"other.json", ".gameCollection.json.swp", "gameCollection.json~"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o644))
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameCollection.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	w := startWatcher(t, path)

	require.NoError(t, os.Remove(path))

	ev := waitEvent(t, w)
	assert.Equal(t, OpRemoved, ev.Op)
}

func TestWatcher_Debounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameCollection.json")
	w := startWatcher(t, path)

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, make([]byte, i+1), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	ev := waitEvent(t, w)
	assert.Equal(t, int64(5), ev.Size)

	select {
	case extra := <-w.Events():
		t.Fatalf("expected a single settled event, got extra %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func TestReloader_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameCollection.json")
	target := &countingReloader{}

	r, err := NewReloader(testLogger(), path, target, Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
	assert.NoError(t, r.Stop())
}

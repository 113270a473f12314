package providers

import "time"

const (
	// shutdownTimeout bounds graceful shutdown when the config does not set one.
	shutdownTimeout = 30 * time.Second
)

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

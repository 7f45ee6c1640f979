package platform

import (
	"context"
	"errors"
	"time"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

// WatchIdle polls provider every interval and passes each reading to onIdle
// until ctx is done. It stops for good when the platform reports
// ErrIdleUnsupported; other errors are passed to onError and polling goes on.
func WatchIdle(ctx context.Context, provider IdleProvider, interval time.Duration, onIdle func(time.Duration), onError func(error)) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			idle, err := provider.IdleDuration()
			if err != nil {
				if errors.Is(err, ErrIdleUnsupported) {
					return err
				}
				if onError != nil {
					onError(err)
				}
				continue
			}
			onIdle(idle)
		}
	}
}

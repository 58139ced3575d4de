// Package cache provides a bounded in-memory cache with expiry.
package cache

import (
	"context"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Sweep calls CleanExpired on every cache at each interval until ctx is done.
// onSweep, if non-nil, receives the number of entries removed per tick.
func Sweep(ctx context.Context, interval time.Duration, onSweep func(removed int), caches ...Cleaner) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, c := range caches {
				removed += c.CleanExpired()
			}
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

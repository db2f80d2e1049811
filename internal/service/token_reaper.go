package service

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// TokenReaper periodically deletes refresh-token rows that expired
// without ever being revoked. Revoked rows are left in place until
// their natural expiry. A failed sweep is logged and retried on the
// next tick; the loop only stops when its context is cancelled.
type TokenReaper struct {
	tokens    TokenStore
	interval  time.Duration
	batchSize int

	now func() time.Time
}

func NewTokenReaper(tokens TokenStore, interval time.Duration) *TokenReaper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TokenReaper{
		tokens:    tokens,
		interval:  interval,
		batchSize: 500,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. It is
// meant to be started in its own goroutine next to the HTTP server.
func (r *TokenReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reaper: sweeping expired tokens every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("reaper: stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one deletion pass. Deletes are batched so the sweep never
// holds locks long enough to stall concurrent login or refresh calls.
func (r *TokenReaper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := r.tokens.DeleteExpired(ctx, r.now(), r.batchSize)
	if err != nil {
		log.Printf("reaper: sweep failed after deleting %d rows: %v", n, err)
		sentry.CaptureException(err)
		return
	}
	log.Printf("reaper: deleted %d expired tokens", n)
}

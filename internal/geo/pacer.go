// File: internal/geo/pacer.go
package geo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts wall time so the pacer can be driven deterministically in
// tests. Sleep must return early with the context error when ctx is
// cancelled during the wait.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// systemClock is the production clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer enforces a minimum interval between consecutive external calls. It
// replaces the ambient "time of last call" variable with an owned token
// bucket, so it is safe under concurrent use and testable with a fake clock.
type Pacer struct {
	limiter *rate.Limiter
	clock   Clock
}

// NewPacer returns a pacer that spaces calls at least minInterval apart.
// A non-positive interval disables pacing entirely.
func NewPacer(minInterval time.Duration) *Pacer {
	return NewPacerWithClock(minInterval, systemClock{})
}

// NewPacerWithClock is NewPacer with an injectable clock for tests.
func NewPacerWithClock(minInterval time.Duration, clock Clock) *Pacer {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Pacer{
		// Burst 1: one call per interval, no catching up.
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
	}
}

// Wait blocks until the next external call may proceed, sleeping whatever
// remains of the interval since the previous call. The first call never
// sleeps. Returns the context error if cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := p.clock.Now()
	r := p.limiter.ReserveN(now, 1)
	if !r.OK() {
		// Unreachable with burst 1, kept so a future misconfiguration
		// surfaces loudly instead of spinning.
		return fmt.Errorf("geo: pacer cannot reserve a call slot")
	}

	if err := p.clock.Sleep(ctx, r.DelayFrom(now)); err != nil {
		r.CancelAt(p.clock.Now())
		return err
	}
	return nil
}

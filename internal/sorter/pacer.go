package sorter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out classification requests.
type Pacer interface {
	// Wait blocks until the next request may start.
	Wait(ctx context.Context) error
	// Done marks the end of an item; the next Wait is measured from here.
	Done()
}

// RatePacer enforces a full interval between the end of one item and the
// start of the next. The first Wait returns immediately.
type RatePacer struct {
	limit   rate.Limit
	limiter *rate.Limiter
}

// NewRatePacer returns a pacer that pauses interval between items. A
// non-positive interval disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{limit: limit, limiter: rate.NewLimiter(limit, 1)}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Done restarts the bucket empty so the next token arrives one interval
// after the item finished, however long its request took.
func (p *RatePacer) Done() {
	p.limiter = rate.NewLimiter(p.limit, 1)
	p.limiter.Allow()
}

type noPacer struct{}

func (noPacer) Wait(context.Context) error { return nil }

func (noPacer) Done() {}

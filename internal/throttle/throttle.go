// Package throttle limits the rate of remote API calls shared by all workers.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle gates remote calls. A nil *Throttle never blocks.
type Throttle struct {
	limiter *rate.Limiter
}

// New returns a throttle allowing perMinute calls per minute with a burst of
// one minute's worth. perMinute <= 0 disables throttling and returns nil.
func New(perMinute int) *Throttle {
	if perMinute <= 0 {
		return nil
	}
	every := time.Minute / time.Duration(perMinute)
	return &Throttle{limiter: rate.NewLimiter(rate.Every(every), perMinute)}
}

// Wait blocks until a call is permitted or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	return t.limiter.Wait(ctx)
}

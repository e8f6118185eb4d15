package helpers

import (
	"sync/atomic"
	"time"

	"github.com/temoto/atomic_clock"
)

// Backoff is retry delay that grows K times per failure, bounded by [Min, Max].
// A failure after quiet period longer than 3*Max starts over from Min,
// attempt itself may take up to Max.
type Backoff struct {
	delay       int64 // atomic, nanoseconds
	lastFailure atomic_clock.Clock

	Min time.Duration
	Max time.Duration
	K   float32
}

// DelayAfter accounts result of an attempt, returns wait before next attempt.
// Success resets delay and returns 0.
func (b *Backoff) DelayAfter(success bool) time.Duration {
	if success {
		b.Reset()
		return 0
	}
	d := time.Duration(atomic.LoadInt64(&b.delay))
	if d == 0 || b.lastFailure.IsZero() || atomic_clock.Since(&b.lastFailure) > 3*b.Max {
		d = b.Min
	} else {
		d = time.Duration(float32(d) * b.K)
	}
	if d > b.Max {
		d = b.Max
	}
	if d < b.Min {
		d = b.Min
	}
	b.lastFailure.SetNow()
	atomic.StoreInt64(&b.delay, int64(d))
	return d
}

func (b *Backoff) Reset() {
	atomic.StoreInt64(&b.delay, 0)
	b.lastFailure.Set(0)
}

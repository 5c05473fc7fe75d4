package timefmt

import (
	"context"
	"sync"
	"time"
)

// Remaining is the time left until a target instant.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Zero reports whether the target has been reached.
func (r Remaining) Zero() bool {
	return r == Remaining{}
}

// RemainingUntil splits target-now into days/hours/minutes/seconds, clamped
// to zero once the target has passed.
func RemainingUntil(now, target time.Time) Remaining {
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{}
	}
	s := int(d / time.Second)
	return Remaining{
		Days:    s / day,
		Hours:   (s % day) / hour,
		Minutes: (s % hour) / minute,
		Seconds: s % minute,
	}
}

// Countdown calls a function once per interval with the time remaining until
// a target. At most one ticker is active; it keeps ticking at zero.
type Countdown struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCountdown() *Countdown {
	return &Countdown{
		interval: time.Second,
		now:      time.Now,
	}
}

// Start stops any running ticker, reports the current remaining time
// immediately and then on every tick until ctx is done or Stop is called.
func (c *Countdown) Start(ctx context.Context, target time.Time, fn func(Remaining)) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	// Swap in the new ticker first so concurrent Starts each stop exactly
	// the one they replaced.
	c.mu.Lock()
	prevCancel, prevDone := c.cancel, c.done
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	if ctx.Err() == nil {
		fn(RemainingUntil(c.now(), target))
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn(RemainingUntil(c.now(), target))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the active ticker and waits for it to exit.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

package sale

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// RemainingSeconds derives the whole seconds left in a hold window that
// started at orderDate, floored at 0.  An orderDate in the future (client
// clock behind the server) yields more than the nominal window; the server
// clock is authoritative so this is not corrected.
func RemainingSeconds(orderDate, now time.Time, window time.Duration) int {
	left := orderDate.Add(window).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// Countdown recomputes the time left on a seat hold once per second from
// the authoritative order date and signals expiry exactly once.  A nil
// *Countdown is valid and inert.
type Countdown struct {
	clock     clockwork.Clock
	orderDate time.Time
	window    time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// StartCountdown starts ticking for the given order date.  onTick (may be
// nil) receives every recomputed value, onExpire runs once when the value
// reaches 0, after which the countdown stops on its own.  Both callbacks run
// on the countdown goroutine.  A nil orderDate starts nothing and returns
// nil.
func StartCountdown(clk clockwork.Clock, orderDate *time.Time, window time.Duration, onTick func(remaining int), onExpire func()) *Countdown {
	if orderDate == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Countdown{
		clock:     clk,
		orderDate: *orderDate,
		window:    window,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.run(ctx, onTick, onExpire)
	return c
}

func (c *Countdown) run(ctx context.Context, onTick func(int), onExpire func()) {
	defer close(c.done)
	for {
		remaining := RemainingSeconds(c.orderDate, c.clock.Now(), c.window)
		if ctx.Err() != nil {
			return
		}
		if onTick != nil {
			onTick(remaining)
		}
		if remaining <= 0 {
			if onExpire != nil && ctx.Err() == nil {
				onExpire()
			}
			return
		}

		timer := c.clock.NewTimer(time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

// Remaining returns the seconds left right now.
func (c *Countdown) Remaining() int {
	if c == nil {
		return 0
	}
	return RemainingSeconds(c.orderDate, c.clock.Now(), c.window)
}

// OrderDate returns the timestamp the countdown derives from.
func (c *Countdown) OrderDate() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.orderDate
}

// Stop cancels the countdown.  It does not wait for the goroutine; use
// Done for that.
func (c *Countdown) Stop() {
	if c == nil {
		return
	}
	c.cancel()
}

// Done is closed once the countdown goroutine has exited.  For a nil
// countdown it returns an already closed channel.
func (c *Countdown) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

package sale

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// PollState is the client-side state of a ZaloPay attempt.
type PollState string

const (
	PollAwaitingScan PollState = "AWAITING_SCAN"
	PollSuccess      PollState = "SUCCESS"
	PollFailed       PollState = "FAILED"
	PollTimedOut     PollState = "TIMED_OUT"
	PollCancelled    PollState = "CANCELLED"
)

// StatusChecker queries the status of a ZaloPay attempt.
type StatusChecker interface {
	GetZaloPayStatus(ctx context.Context, transID string) (model.PaymentStatus, error)
}

// PollCallbacks are invoked from the poll goroutine.
type PollCallbacks struct {
	// OnConfirmed runs as soon as SUCCESS is observed, before the grace
	// period.
	OnConfirmed func()
	// OnSuccess runs after the grace period.  The context is detached from
	// the handle so that completion is not interrupted half-way.
	OnSuccess func(ctx context.Context)
	// OnFailed runs when the API reports FAILED.
	OnFailed func()
	// OnTimedOut runs when the scan window closes and the poller was
	// configured to abort.
	OnTimedOut func()
	// OnCancelledAfterSuccess runs when Cancel lands during the grace
	// period, i.e. the payment went through but completion will not be
	// called from here.
	OnCancelledAfterSuccess func()
}

// Poller repeatedly queries ZaloPay status until a terminal state.
type Poller struct {
	clock              clockwork.Clock
	interval           time.Duration
	grace              time.Duration
	scanWindow         time.Duration
	abortOnScanTimeout bool
	log                logrus.FieldLogger
}

// NewPoller creates a poller.  interval is the gap between requests, grace
// the pause between SUCCESS and OnSuccess, scanWindow the "time left to
// scan" shown to the customer.
func NewPoller(clk clockwork.Clock, interval, grace, scanWindow time.Duration, abortOnScanTimeout bool, log logrus.FieldLogger) *Poller {
	return &Poller{
		clock:              clk,
		interval:           interval,
		grace:              grace,
		scanWindow:         scanWindow,
		abortOnScanTimeout: abortOnScanTimeout,
		log:                log,
	}
}

// PollHandle controls a running poll.  Cancel is the cancellation token:
// after it returns no further status request is started and OnSuccess is
// never called.
type PollHandle struct {
	transID      string
	scanDeadline time.Time
	clock        clockwork.Clock
	cancel       context.CancelFunc
	done         chan struct{}

	mu       sync.Mutex
	state    PollState
	requests int
}

// Start begins polling transID in a new goroutine.  The first request is
// sent one interval after start.
func (p *Poller) Start(transID string, checker StatusChecker, cb PollCallbacks) *PollHandle {
	return p.StartFrom(context.Background(), transID, p.clock.Now(), checker, cb)
}

// StartFrom is Start with a parent context and an explicit start time; the
// scan deadline is computed from startedAt.  Restored sessions use it to
// keep the deadline of the first start.
func (p *Poller) StartFrom(parent context.Context, transID string, startedAt time.Time, checker StatusChecker, cb PollCallbacks) *PollHandle {
	ctx, cancel := context.WithCancel(parent)
	h := &PollHandle{
		transID:      transID,
		scanDeadline: startedAt.Add(p.scanWindow),
		clock:        p.clock,
		cancel:       cancel,
		done:         make(chan struct{}),
		state:        PollAwaitingScan,
	}
	go p.run(ctx, h, checker, cb)
	return h
}

func (p *Poller) run(ctx context.Context, h *PollHandle, checker StatusChecker, cb PollCallbacks) {
	defer close(h.done)
	log := p.log.WithField("trans_id", h.transID)

	for {
		if !p.wait(ctx, p.interval) {
			h.finish(PollAwaitingScan, PollCancelled)
			return
		}

		if p.abortOnScanTimeout && !p.clock.Now().Before(h.scanDeadline) {
			if h.finish(PollAwaitingScan, PollTimedOut) && cb.OnTimedOut != nil {
				cb.OnTimedOut()
			}
			log.Info("zalopay scan window elapsed")
			return
		}

		h.mu.Lock()
		h.requests++
		h.mu.Unlock()
		status, err := checker.GetZaloPayStatus(ctx, h.transID)
		if ctx.Err() != nil {
			h.finish(PollAwaitingScan, PollCancelled)
			return
		}
		if err != nil {
			// transient; a failed request is not a failed payment
			log.WithError(err).Warn("zalopay status poll failed, retrying")
			continue
		}

		switch status {
		case model.PaymentSuccess:
			h.finish(PollAwaitingScan, PollSuccess)
			log.Info("zalopay payment confirmed")
			if cb.OnConfirmed != nil {
				cb.OnConfirmed()
			}
			if !p.wait(ctx, p.grace) {
				log.Warn("zalopay poll cancelled after payment success; order not completed here")
				if cb.OnCancelledAfterSuccess != nil {
					cb.OnCancelledAfterSuccess()
				}
				return
			}
			if cb.OnSuccess != nil {
				cb.OnSuccess(context.WithoutCancel(ctx))
			}
			return
		case model.PaymentFailed:
			h.finish(PollAwaitingScan, PollFailed)
			log.Info("zalopay payment failed")
			if cb.OnFailed != nil {
				cb.OnFailed()
			}
			return
		}
	}
}

// wait blocks for d on the poller clock.  It reports false when ctx was
// cancelled first.
func (p *Poller) wait(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := p.clock.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-timer.Chan():
		return ctx.Err() == nil
	}
}

// finish moves the handle from `from` to `to` and reports whether it did.
func (h *PollHandle) finish(from, to PollState) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != from {
		return false
	}
	h.state = to
	return true
}

// Cancel stops polling.  It does not wait; use Done for that.
func (h *PollHandle) Cancel() {
	if h == nil {
		return
	}
	h.cancel()
}

// Done is closed when the poll goroutine has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// TransID returns the polled transaction.
func (h *PollHandle) TransID() string {
	return h.transID
}

// State returns the current poll state.
func (h *PollHandle) State() PollState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Requests returns how many status requests were issued.
func (h *PollHandle) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

// ScanDeadline is when the "time left to scan" display reaches zero.
func (h *PollHandle) ScanDeadline() time.Time {
	return h.scanDeadline
}

// ScanRemainingSeconds is the display value next to the QR code, floored
// at 0.
func (h *PollHandle) ScanRemainingSeconds() int {
	left := h.scanDeadline.Sub(h.clock.Now())
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

package sale

import (
	"context"
	"time"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// PaymentView describes the ZaloPay attempt shown in the QR modal.
type PaymentView struct {
	TransID              string    `json:"transId"`
	QRURL                string    `json:"qrUrl"`
	StartedAt            time.Time `json:"startedAt"`
	State                PollState `json:"state"`
	Confirmed            bool      `json:"confirmed"`
	ScanRemainingSeconds int       `json:"scanRemainingSeconds"`
}

// Snapshot is the serialisable view of a session.  Terminals render it and
// the manager stores it in Redis to resume sessions after a restart.
type Snapshot struct {
	ID                   string              `json:"id"`
	StaffID              string              `json:"staffId"`
	Step                 Step                `json:"step"`
	Movie                *model.Movie        `json:"movie"`
	ShowTime             *model.ShowTime     `json:"showTime"`
	SelectedSeats        []model.Seat        `json:"selectedSeats"`
	SelectedTempSeats    []model.Seat        `json:"selectedTempSeats"`
	SelectedProducts     []model.ProductItem `json:"selectedProducts"`
	Customer             *model.Customer     `json:"customer"`
	OrderCustomerID      *int64              `json:"orderCustomerId,omitempty"`
	Order                *model.Order        `json:"order"`
	ZpAppTransID         *string             `json:"zpAppTransId"`
	Payment              *PaymentView        `json:"payment,omitempty"`
	PaidTransID          string              `json:"paidTransId,omitempty"`
	IsLoadingRedirect    bool                `json:"isLoadingRedirect"`
	HoldRemainingSeconds *int                `json:"holdRemainingSeconds"`
	HoldExpired          bool                `json:"holdExpired"`
	CompletedAt          *time.Time          `json:"completedAt,omitempty"`
	FinalizeError        string              `json:"finalizeError,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:                s.id,
		StaffID:           s.staffID,
		Step:              s.step,
		SelectedSeats:     append([]model.Seat{}, s.seats...),
		SelectedTempSeats: append([]model.Seat{}, s.tempSeats...),
		SelectedProducts:  append([]model.ProductItem{}, s.products...),
		Order:             s.order.Clone(),
		IsLoadingRedirect: s.loadingRedirect,
		HoldExpired:       s.holdExpired,
		PaidTransID:       s.paidTransID,
		FinalizeError:     s.finalizeError,
		CreatedAt:         s.createdAt,
		UpdatedAt:         s.updatedAt,
	}
	if s.movie != nil {
		m := *s.movie
		snap.Movie = &m
	}
	if s.showTime != nil {
		st := *s.showTime
		snap.ShowTime = &st
	}
	if s.customer != nil {
		c := *s.customer
		snap.Customer = &c
	}
	if s.orderCustomerID != nil {
		id := *s.orderCustomerID
		snap.OrderCustomerID = &id
	}
	if s.countdown != nil {
		left := s.countdown.Remaining()
		snap.HoldRemainingSeconds = &left
	} else if s.holdExpired {
		zero := 0
		snap.HoldRemainingSeconds = &zero
	}
	if s.zpAppTransID != nil {
		id := *s.zpAppTransID
		snap.ZpAppTransID = &id
		view := &PaymentView{
			TransID:   id,
			QRURL:     s.zpQRURL,
			StartedAt: s.zpStartedAt,
			State:     PollAwaitingScan,
			Confirmed: s.paymentConfirmed,
		}
		if s.poll != nil {
			view.State = s.poll.State()
			view.ScanRemainingSeconds = s.poll.ScanRemainingSeconds()
		}
		snap.Payment = view
	}
	if !s.completedAt.IsZero() {
		at := s.completedAt
		snap.CompletedAt = &at
	}
	return snap
}

// restoreSession rebuilds a session from a stored snapshot, restarting the
// hold countdown and the ZaloPay poller where they were running.  ctx is
// used by the restarted poller.
func restoreSession(ctx context.Context, opts Options, snap Snapshot) *Session {
	s := NewSession(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdAt = snap.CreatedAt
	s.updatedAt = snap.UpdatedAt
	s.step = snap.Step
	s.movie = snap.Movie
	s.showTime = snap.ShowTime
	s.seats = snap.SelectedSeats
	s.tempSeats = snap.SelectedTempSeats
	s.products = snap.SelectedProducts
	s.customer = snap.Customer
	s.orderCustomerID = snap.OrderCustomerID
	s.order = snap.Order.Clone()
	s.holdExpired = snap.HoldExpired
	s.paidTransID = snap.PaidTransID
	s.finalizeError = snap.FinalizeError
	if snap.CompletedAt != nil {
		s.completedAt = *snap.CompletedAt
	}
	if s.step == "" {
		s.step = StepChooseMovie
	}
	if s.step == StepCompleted || s.order == nil {
		return s
	}

	if snap.ZpAppTransID != nil && snap.Payment != nil {
		s.startPollLocked(ctx, *snap.ZpAppTransID, snap.Payment.QRURL, snap.Payment.StartedAt)
	}
	// a hold that lapsed while the service was down is handled by the
	// first countdown evaluation
	s.syncCountdownLocked()
	return s
}

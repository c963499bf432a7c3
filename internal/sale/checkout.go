package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

func (s *Session) checkPayableLocked() error {
	if err := s.checkOrderOpenLocked(); err != nil {
		return err
	}
	if s.order == nil {
		return ErrNoOrder
	}
	return nil
}

// PayCash completes the order as paid in cash and moves to COMPLETED.
func (s *Session) PayCash(ctx context.Context) (receipt *model.Receipt, err error) {
	defer s.changed()
	ctx, span := tracer.Start(ctx, "sale.PayCash", trace.WithAttributes(attribute.String("session.id", s.id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	if err := s.checkPayableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	epoch, err := s.beginRedirectLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.endRedirect()
	existing := s.order.Clone()
	orderID := existing.ID
	s.mu.Unlock()

	patch, err := s.api.CompleteOrder(ctx, orderID, model.CompleteOrderRequest{PaymentMethod: model.PaymentMethodCash})
	if err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("cash completion failed")
		return nil, fmt.Errorf("complete order %d: %w", orderID, err)
	}
	order := existing.Merge(patch)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.WithField("order_id", orderID).Error("sale reset while completing cash payment")
		s.reportIncident(ctx, Incident{
			OrderID:   orderID,
			OrderCode: order.Code,
			Kind:      IncidentResetDuringPayment,
			Detail:    "order completed in cash after the sale was reset",
		})
		return nil, ErrSessionReset
	}
	s.step = StepCompleted
	s.completedAt = s.clock.Now()
	if order.PaymentMethod == "" {
		order.PaymentMethod = model.PaymentMethodCash
	}
	s.applyOrderLocked(order)
	r := s.receiptLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"order_id": orderID, "amount": r.FinalAmount.String()}).Info("sale completed in cash")
	if serr := s.sink.SaleCompleted(context.WithoutCancel(ctx), r); serr != nil {
		s.log.WithError(serr).Error("record completed sale")
	}
	return &r, nil
}

// StartZaloPay generates a ZaloPay QR for the order and starts polling its
// status.  The request context only scopes the QR generation; polling
// outlives it.
func (s *Session) StartZaloPay(ctx context.Context) (zp *model.ZaloPayOrder, err error) {
	defer s.changed()
	ctx, span := tracer.Start(ctx, "sale.StartZaloPay", trace.WithAttributes(attribute.String("session.id", s.id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	if err := s.checkPayableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	epoch, err := s.beginRedirectLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	defer s.endRedirect()
	orderID := s.order.ID
	s.mu.Unlock()

	zp, err = s.api.CreateZaloPayOrder(ctx, orderID)
	if err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("create zalopay order failed")
		return nil, fmt.Errorf("create zalopay order for %d: %w", orderID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil, ErrSessionReset
	}
	s.startPollLocked(context.WithoutCancel(ctx), zp.TransID, zp.QRURL, s.clock.Now())
	s.log.WithFields(logrus.Fields{"order_id": orderID, "trans_id": zp.TransID}).Info("zalopay qr generated")
	return zp, nil
}

// startPollLocked records the attempt and starts its poller.  Every
// callback is bound to transID and ignored once the session moved on.
func (s *Session) startPollLocked(ctx context.Context, transID, qrURL string, startedAt time.Time) {
	id := transID
	s.zpAppTransID = &id
	s.zpQRURL = qrURL
	s.zpStartedAt = startedAt
	s.paymentConfirmed = false
	s.touchLocked()

	orderID, orderCode := s.order.ID, s.order.Code
	s.poll = s.poller.StartFrom(ctx, transID, startedAt, s.api, PollCallbacks{
		OnConfirmed: func() { s.onPaymentConfirmed(transID) },
		OnSuccess:   func(ctx context.Context) { s.completeZaloPay(ctx, transID) },
		OnFailed:    func() { s.endZaloPay(transID, "payment failed") },
		OnTimedOut:  func() { s.endZaloPay(transID, "scan window elapsed") },
		OnCancelledAfterSuccess: func() {
			s.reportIncident(ctx, Incident{
				OrderID:   orderID,
				OrderCode: orderCode,
				TransID:   transID,
				Kind:      IncidentCancelledAfterPayment,
				Detail:    "zalopay payment succeeded but the attempt was cancelled before the order was completed",
			})
		},
	})
}

func (s *Session) currentTransLocked(transID string) bool {
	return s.zpAppTransID != nil && *s.zpAppTransID == transID
}

func (s *Session) onPaymentConfirmed(transID string) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentTransLocked(transID) {
		return
	}
	s.paymentConfirmed = true
	s.paidTransID = transID
	s.touchLocked()
}

// completeZaloPay finalises the order after a confirmed payment.  A failed
// completion still ends the sale: the money was taken, so the cashier moves
// on and an incident is raised for operators.
func (s *Session) completeZaloPay(ctx context.Context, transID string) {
	defer s.changed()
	ctx, span := tracer.Start(ctx, "sale.CompleteZaloPay", trace.WithAttributes(
		attribute.String("session.id", s.id), attribute.String("zalopay.trans_id", transID)))
	defer span.End()

	s.mu.Lock()
	if !s.currentTransLocked(transID) {
		s.mu.Unlock()
		return
	}
	orderID, orderCode := s.order.ID, s.order.Code
	s.mu.Unlock()

	patch, err := s.api.CompleteOrder(ctx, orderID, model.CompleteOrderRequest{
		PaymentMethod: model.PaymentMethodZaloPay,
		TransID:       transID,
	})

	s.mu.Lock()
	if !s.currentTransLocked(transID) {
		s.mu.Unlock()
		s.log.WithField("trans_id", transID).Warn("sale moved on while completing zalopay payment")
		detail := "zalopay payment completed after the attempt was closed"
		if err != nil {
			detail = err.Error()
		}
		s.reportIncident(ctx, Incident{
			OrderID:   orderID,
			OrderCode: orderCode,
			TransID:   transID,
			Kind:      IncidentResetDuringPayment,
			Detail:    detail,
		})
		return
	}
	s.clearPaymentLocked()
	s.step = StepCompleted
	s.completedAt = s.clock.Now()
	if err != nil {
		s.finalizeError = err.Error()
		s.stopCountdownLocked()
		s.touchLocked()
		s.mu.Unlock()

		span.RecordError(err)
		s.log.WithError(err).WithFields(logrus.Fields{"order_id": orderID, "trans_id": transID}).
			Error("zalopay payment succeeded but order completion failed")
		s.reportIncident(ctx, Incident{
			OrderID:   orderID,
			OrderCode: orderCode,
			TransID:   transID,
			Kind:      IncidentCompletionFailed,
			Detail:    err.Error(),
		})
		return
	}
	order := s.order.Merge(patch)
	if order.PaymentMethod == "" {
		order.PaymentMethod = model.PaymentMethodZaloPay
	}
	s.applyOrderLocked(order)
	r := s.receiptLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"order_id": orderID, "trans_id": transID}).Info("sale completed with zalopay")
	if serr := s.sink.SaleCompleted(ctx, r); serr != nil {
		s.log.WithError(serr).Error("record completed sale")
	}
}

// endZaloPay closes an attempt that ended without payment.  If the seat
// hold lapsed meanwhile the sale resets.
func (s *Session) endZaloPay(transID, reason string) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentTransLocked(transID) {
		return
	}
	s.log.WithField("trans_id", transID).Info("zalopay attempt ended: " + reason)
	s.clearPaymentLocked()
	if s.holdExpired {
		s.log.Info("seat hold lapsed during zalopay attempt; resetting sale")
		s.resetLocked()
	}
}

// CancelZaloPay closes the QR modal.  Polling stops and the order is not
// completed.  A payment confirmed before the cancel keeps the sale marked
// as paid, so it cannot be charged again.
func (s *Session) CancelZaloPay() error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.zpAppTransID == nil {
		return ErrNoPaymentInProgress
	}
	transID := *s.zpAppTransID
	confirmed := s.paymentConfirmed
	s.clearPaymentLocked()
	s.log.WithField("trans_id", transID).Info("zalopay attempt cancelled")
	if s.holdExpired && !confirmed {
		s.log.Info("seat hold lapsed during zalopay attempt; resetting sale")
		s.resetLocked()
	}
	return nil
}

func (s *Session) clearPaymentLocked() {
	s.poll.Cancel()
	s.poll = nil
	s.zpAppTransID = nil
	s.zpQRURL = ""
	s.zpStartedAt = time.Time{}
	s.paymentConfirmed = false
	s.touchLocked()
}

func (s *Session) reportIncident(ctx context.Context, inc Incident) {
	inc.SessionID = s.id
	inc.StaffID = s.staffID
	inc.At = s.clock.Now()
	if err := s.sink.SaleIncident(context.WithoutCancel(ctx), inc); err != nil {
		// last resort; the log line is the only trace left
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id": inc.OrderID,
			"trans_id": inc.TransID,
			"kind":     inc.Kind,
		}).Error("could not record sale incident")
	}
}

// FinishSale resets a completed sale once the receipt was printed.
func (s *Session) FinishSale() error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepCompleted {
		return ErrSaleNotCompleted
	}
	s.resetLocked()
	return nil
}

// Receipt returns the printable view of a completed sale.
func (s *Session) Receipt() (*model.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepCompleted || s.order == nil {
		return nil, ErrSaleNotCompleted
	}
	r := s.receiptLocked()
	return &r, nil
}

func (s *Session) receiptLocked() model.Receipt {
	r := model.Receipt{
		OrderID:       s.order.ID,
		OrderCode:     s.order.Code,
		StaffID:       s.staffID,
		TotalPrice:    s.order.TotalPrice,
		TotalDiscount: s.order.TotalDiscount,
		FinalAmount:   s.order.FinalAmount,
		PaymentMethod: s.order.PaymentMethod,
		CompletedAt:   s.completedAt,
	}
	if s.movie != nil {
		r.MovieTitle = s.movie.Title
	}
	if s.showTime != nil {
		r.CinemaName = s.showTime.CinemaName
		r.RoomName = s.showTime.RoomName
		r.StartTime = s.showTime.StartTime
	}
	if s.customer != nil {
		r.CustomerName = s.customer.Name
	}
	for _, seat := range s.seats {
		r.Seats = append(r.Seats, seat.Name)
	}
	for _, d := range s.order.OrderDetails {
		r.Lines = append(r.Lines, model.ReceiptLine{Name: d.Name, Quantity: d.Quantity, Price: d.Price})
	}
	return r
}

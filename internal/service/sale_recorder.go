package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/queue"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

// ReceiptStore archives receipts.
type ReceiptStore interface {
	Save(ctx context.Context, receipt model.Receipt) error
}

// IncidentStore records incidents and returns their id.
type IncidentStore interface {
	Create(ctx context.Context, inc sale.Incident) (string, error)
}

// EventPublisher sends an event to a queue.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// SaleRecorder is the sale.Sink of the service.  Completed sales are
// archived in MySQL and announced on pos.sale.completed; incidents are
// stored in sale_incidents and announced on pos.sale.incident.  Any of the
// three dependencies may be nil when the backing service is not
// configured.
type SaleRecorder struct {
	receipts  ReceiptStore
	incidents IncidentStore
	publisher EventPublisher
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewSaleRecorder returns a recorder.
func NewSaleRecorder(receipts ReceiptStore, incidents IncidentStore, publisher EventPublisher, log logrus.FieldLogger) *SaleRecorder {
	return &SaleRecorder{
		receipts:  receipts,
		incidents: incidents,
		publisher: publisher,
		timeout:   5 * time.Second,
		log:       log.WithField("component", "sale-recorder"),
	}
}

// SaleCompleted archives the receipt and publishes the sale.
func (r *SaleRecorder) SaleCompleted(ctx context.Context, receipt model.Receipt) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var errs []error
	if r.receipts != nil {
		if err := r.receipts.Save(ctx, receipt); err != nil {
			r.log.WithError(err).WithField("order_code", receipt.OrderCode).Error("archive receipt failed")
			errs = append(errs, fmt.Errorf("archive receipt: %w", err))
		}
	}
	if r.publisher != nil {
		ev := queue.SaleCompletedEvent{
			StaffID:       receipt.StaffID,
			OrderID:       receipt.OrderID,
			OrderCode:     receipt.OrderCode,
			MovieTitle:    receipt.MovieTitle,
			CinemaName:    receipt.CinemaName,
			RoomName:      receipt.RoomName,
			SeatLabels:    receipt.Seats,
			FinalAmount:   receipt.FinalAmount.String(),
			PaymentMethod: receipt.PaymentMethod,
			CompletedAt:   receipt.CompletedAt.UTC().Format(time.RFC3339),
		}
		if !receipt.StartTime.IsZero() {
			ev.StartsAt = receipt.StartTime.UTC().Format(time.RFC3339)
		}
		if err := r.publisher.Publish(ctx, queue.SaleCompletedQueue, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaleIncident stores and publishes an incident.  When the database write
// fails the event is still published with a fresh id so operators see it.
func (r *SaleRecorder) SaleIncident(ctx context.Context, inc sale.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log := r.log.WithFields(logrus.Fields{
		"order_id":   inc.OrderID,
		"order_code": inc.OrderCode,
		"trans_id":   inc.TransID,
		"kind":       inc.Kind,
	})
	log.Error("sale incident: " + inc.Detail)

	var errs []error
	id := ""
	if r.incidents != nil {
		var err error
		if id, err = r.incidents.Create(ctx, inc); err != nil {
			log.WithError(err).Error("store incident failed")
			errs = append(errs, fmt.Errorf("store incident: %w", err))
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	if r.publisher != nil {
		ev := queue.SaleIncidentEvent{
			IncidentID: id,
			SessionID:  inc.SessionID,
			StaffID:    inc.StaffID,
			OrderID:    inc.OrderID,
			OrderCode:  inc.OrderCode,
			TransID:    inc.TransID,
			Kind:       inc.Kind,
			Detail:     inc.Detail,
			OccurredAt: inc.At.UTC().Format(time.RFC3339),
		}
		if err := r.publisher.Publish(ctx, queue.SaleIncidentQueue, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

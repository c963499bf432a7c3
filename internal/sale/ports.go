package sale

import (
	"context"
	"time"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// OrderAPI is the part of the cinema API a sale session drives.  Update
// endpoints answer with partial orders.
type OrderAPI interface {
	StatusChecker
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error)
	UpdateOrderSeats(ctx context.Context, orderID int64, seatIDs []int64) (*model.OrderPatch, error)
	UpdateOrderProducts(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error)
	UpdateOrderCustomer(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error)
	CompleteOrder(ctx context.Context, orderID int64, req model.CompleteOrderRequest) (*model.OrderPatch, error)
	CreateZaloPayOrder(ctx context.Context, orderID int64) (*model.ZaloPayOrder, error)
}

// Incident describes a sale that needs operator follow-up, typically a
// payment that succeeded upstream but whose order could not be completed.
type Incident struct {
	SessionID string    `json:"sessionId"`
	StaffID   string    `json:"staffId"`
	OrderID   int64     `json:"orderId"`
	OrderCode string    `json:"orderCode"`
	TransID   string    `json:"transId,omitempty"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}

// Incident kinds.
const (
	IncidentCompletionFailed      = "COMPLETION_FAILED"
	IncidentCancelledAfterPayment = "CANCELLED_AFTER_PAYMENT"
	IncidentResetDuringPayment    = "RESET_DURING_PAYMENT"
)

// Sink receives the outcomes of sales.  Implementations archive receipts
// and surface incidents to operators; they must not block for long.
type Sink interface {
	SaleCompleted(ctx context.Context, receipt model.Receipt) error
	SaleIncident(ctx context.Context, incident Incident) error
}

// SnapshotStore persists session snapshots so terminals can resume.
// LoadSnapshot returns nil, nil for unknown ids.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

type nopSink struct{}

func (nopSink) SaleCompleted(context.Context, model.Receipt) error { return nil }
func (nopSink) SaleIncident(context.Context, Incident) error       { return nil }

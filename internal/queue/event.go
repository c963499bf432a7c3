// Package queue defines the sale events exchanged over RabbitMQ and the
// consumer that turns them into operator logs.
package queue

// Queue names.  Both are durable; messages are persistent.
const (
	SaleCompletedQueue = "pos.sale.completed"
	SaleIncidentQueue  = "pos.sale.incident"
)

// SaleCompletedEvent is published when a sale is completed and its receipt
// printed.  It carries enough of the receipt for reporting without a call
// back to the cinema API.
type SaleCompletedEvent struct {
	StaffID       string   `json:"staff_id"`
	OrderID       int64    `json:"order_id"`
	OrderCode     string   `json:"order_code"`
	MovieTitle    string   `json:"movie_title"`
	CinemaName    string   `json:"cinema_name"`
	RoomName      string   `json:"room_name"`
	StartsAt      string   `json:"starts_at"`
	SeatLabels    []string `json:"seats"`
	FinalAmount   string   `json:"final_amount"`
	PaymentMethod string   `json:"payment_method"`
	CompletedAt   string   `json:"completed_at"`
}

// SaleIncidentEvent is published when a sale needs operator follow-up, for
// example a ZaloPay payment whose order could not be completed.
type SaleIncidentEvent struct {
	IncidentID string `json:"incident_id"`
	SessionID  string `json:"session_id"`
	StaffID    string `json:"staff_id"`
	OrderID    int64  `json:"order_id"`
	OrderCode  string `json:"order_code"`
	TransID    string `json:"trans_id,omitempty"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"`
}

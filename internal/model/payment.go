package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a ZaloPay attempt as reported by the
// cinema API.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// IsTerminal reports whether polling must stop at this status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// Payment methods accepted at the counter.
const (
	PaymentMethodCash    = "CASH"
	PaymentMethodZaloPay = "ZALOPAY"
)

// ZaloPayOrder is returned when a QR code is generated for an order.
type ZaloPayOrder struct {
	QRURL   string `json:"qrUrl"`
	TransID string `json:"transId"`
}

// Receipt is the printable view of a completed sale, built from the final
// order snapshot.  It is also what gets archived for reprints.
type Receipt struct {
	OrderID       int64           `json:"orderId"`
	OrderCode     string          `json:"orderCode"`
	StaffID       string          `json:"staffId"`
	MovieTitle    string          `json:"movieTitle"`
	CinemaName    string          `json:"cinemaName"`
	RoomName      string          `json:"roomName"`
	StartTime     time.Time       `json:"startTime"`
	Seats         []string        `json:"seats"`
	Lines         []ReceiptLine   `json:"lines"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	CustomerName  string          `json:"customerName,omitempty"`
	CompletedAt   time.Time       `json:"completedAt"`
}

// ReceiptLine is one printed line.
type ReceiptLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

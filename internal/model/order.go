package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus values reported by the cinema API.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order detail line types.
const (
	OrderDetailTicket  = "TICKET"
	OrderDetailProduct = "PRODUCT"
)

// Order is the server-confirmed order snapshot of a sale.  All amounts are
// computed by the cinema API; the POS never derives prices locally.
//
// Fields:
//  ID            – identifier assigned by the cinema API.
//  Code          – public order code printed on the receipt.
//  OrderDate     – creation timestamp; anchors the seat hold window.
//  TotalPrice    – sum of the lines before discounts.
//  TotalDiscount – promotion discount applied by the server.
//  FinalAmount   – amount to collect.
//  Status        – PENDING, COMPLETED or CANCELLED.
//  PaymentMethod – CASH or ZALOPAY once completed.
//  OrderDetails  – ticket and product lines.
type Order struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	OrderDate     *time.Time      `json:"orderDate"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	OrderDetails  []OrderDetail   `json:"orderDetails"`
}

// OrderDetail is one line of an order: a ticket for a seat or a product
// with a quantity.
type OrderDetail struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	SeatID    *int64          `json:"seatId,omitempty"`
	ProductID *int64          `json:"productId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Clone returns a deep copy so snapshots never share slices with the
// session state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.OrderDate != nil {
		d := *o.OrderDate
		cp.OrderDate = &d
	}
	if o.OrderDetails != nil {
		cp.OrderDetails = make([]OrderDetail, len(o.OrderDetails))
		copy(cp.OrderDetails, o.OrderDetails)
	}
	return &cp
}

// OrderPatch is an order response of a partial update endpoint.  Only the
// fields present in the payload are set; a JSON null counts as absent.
type OrderPatch struct {
	ID            *int64              `json:"id"`
	Code          *string             `json:"code"`
	OrderDate     *time.Time          `json:"orderDate"`
	TotalPrice    decimal.NullDecimal `json:"totalPrice"`
	TotalDiscount decimal.NullDecimal `json:"totalDiscount"`
	FinalAmount   decimal.NullDecimal `json:"finalAmount"`
	Status        *string             `json:"status"`
	PaymentMethod *string             `json:"paymentMethod"`
	OrderDetails  *[]OrderDetail      `json:"orderDetails"`
}

// PatchOf returns a patch carrying every field of o.
func PatchOf(o Order) *OrderPatch {
	details := make([]OrderDetail, len(o.OrderDetails))
	copy(details, o.OrderDetails)
	p := &OrderPatch{
		ID:            &o.ID,
		Code:          &o.Code,
		TotalPrice:    decimal.NewNullDecimal(o.TotalPrice),
		TotalDiscount: decimal.NewNullDecimal(o.TotalDiscount),
		FinalAmount:   decimal.NewNullDecimal(o.FinalAmount),
		Status:        &o.Status,
		PaymentMethod: &o.PaymentMethod,
		OrderDetails:  &details,
	}
	if o.OrderDate != nil {
		d := *o.OrderDate
		p.OrderDate = &d
	}
	return p
}

// Merge overlays the fields present in p onto a copy of o.  Present zero
// values overwrite, so a discount dropping to 0 or an emptied product list
// is applied.  A nil receiver builds the order from p alone.
func (o *Order) Merge(p *OrderPatch) *Order {
	out := o.Clone()
	if out == nil {
		out = &Order{}
	}
	if p == nil {
		return out
	}
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Code != nil {
		out.Code = *p.Code
	}
	if p.OrderDate != nil {
		d := *p.OrderDate
		out.OrderDate = &d
	}
	if p.TotalPrice.Valid {
		out.TotalPrice = p.TotalPrice.Decimal
	}
	if p.TotalDiscount.Valid {
		out.TotalDiscount = p.TotalDiscount.Decimal
	}
	if p.FinalAmount.Valid {
		out.FinalAmount = p.FinalAmount.Decimal
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		out.PaymentMethod = *p.PaymentMethod
	}
	if p.OrderDetails != nil {
		out.OrderDetails = make([]OrderDetail, len(*p.OrderDetails))
		copy(out.OrderDetails, *p.OrderDetails)
	}
	return out
}

// CreateOrderRequest opens a pending order for the selected seats.
type CreateOrderRequest struct {
	ShowTimeID int64   `json:"showTimeId"`
	SeatIDs    []int64 `json:"seatIds"`
	CustomerID *int64  `json:"customerId"`
}

// OrderProductInput is one product line sent when syncing combos.
type OrderProductInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CompleteOrderRequest finalises a paid order.
type CompleteOrderRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	TransID       string `json:"transId,omitempty"`
}

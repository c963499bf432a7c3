package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// CreateOrder opens a pending order holding the selected seats.  The
// returned orderDate starts the seat hold window.
func (c *Client) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	var out model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderSeats replaces the seats of a pending order.
func (c *Client) UpdateOrderSeats(ctx context.Context, orderID int64, seatIDs []int64) (*model.OrderPatch, error) {
	var out model.OrderPatch
	body := map[string]any{"seatIds": seatIDs}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/seats", orderID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderProducts replaces the product lines of a pending order.  An
// empty slice clears all products.
func (c *Client) UpdateOrderProducts(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error) {
	if items == nil {
		items = []model.OrderProductInput{}
	}
	var out model.OrderPatch
	body := map[string]any{"products": items}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/products", orderID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderCustomer attaches (or detaches, with nil) a member.
func (c *Client) UpdateOrderCustomer(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error) {
	var out model.OrderPatch
	body := map[string]any{"customerId": customerID}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/customer", orderID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteOrder marks a paid order as completed.
func (c *Client) CompleteOrder(ctx context.Context, orderID int64, req model.CompleteOrderRequest) (*model.OrderPatch, error) {
	var out model.OrderPatch
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/complete", orderID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateZaloPayOrder generates a ZaloPay QR code for a pending order.
func (c *Client) CreateZaloPayOrder(ctx context.Context, orderID int64) (*model.ZaloPayOrder, error) {
	var out model.ZaloPayOrder
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/zalopay", orderID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetZaloPayStatus returns the status of a ZaloPay attempt.
func (c *Client) GetZaloPayStatus(ctx context.Context, transID string) (model.PaymentStatus, error) {
	var out struct {
		Status model.PaymentStatus `json:"status"`
	}
	path := "/zalopay/" + url.PathEscape(transID) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return "", err
	}
	if out.Status == "" {
		return model.PaymentPending, nil
	}
	return out.Status, nil
}

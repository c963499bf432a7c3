package model

import "github.com/shopspring/decimal"

// Product is a concession item or combo sold alongside tickets.  Price is
// the list price for display; the order total is always computed by the
// cinema API.
type Product struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Status      string          `json:"status"`
}

// ProductItem is a product selected in a sale with its quantity (>= 1).
type ProductItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Customer is a registered member matched at the counter.  Walk-in sales
// carry no customer.
type Customer struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

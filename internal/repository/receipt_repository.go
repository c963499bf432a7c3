package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// ReceiptRepo archives printed receipts so a cashier can reprint them by
// order code.  The full receipt is stored as JSON next to the columns used
// for lookups and reporting.
type ReceiptRepo struct {
	db *sql.DB
}

// NewReceiptRepo returns a ReceiptRepo bound to db.
func NewReceiptRepo(db *sql.DB) *ReceiptRepo { return &ReceiptRepo{db: db} }

// Save stores the receipt.  Saving the same order code again overwrites
// the payload, which keeps redelivered events harmless.
func (r *ReceiptRepo) Save(ctx context.Context, receipt model.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt %s: %w", receipt.OrderCode, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO receipts (order_id, order_code, staff_id, payment_method, final_amount, payload, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE payment_method = VALUES(payment_method), final_amount = VALUES(final_amount),
		   payload = VALUES(payload), completed_at = VALUES(completed_at)`,
		receipt.OrderID, receipt.OrderCode, receipt.StaffID, receipt.PaymentMethod,
		receipt.FinalAmount, payload, receipt.CompletedAt.UTC(),
	)
	return err
}

// GetByCode loads an archived receipt.  It returns ErrNotFound when the
// order code is unknown.
func (r *ReceiptRepo) GetByCode(ctx context.Context, code string) (*model.Receipt, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM receipts WHERE order_code = ? LIMIT 1`, code,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var receipt model.Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt %s: %w", code, err)
	}
	return &receipt, nil
}

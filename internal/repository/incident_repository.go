package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

// IncidentRecord is a sale incident as stored in sale_incidents.
//
// Fields:
//  ID         – UUID assigned on insert.
//  Incident   – what happened, as reported by the sale session.
//  ResolvedAt – set once an operator closed the incident.
//  ResolvedBy – staff id of that operator.
type IncidentRecord struct {
	ID string `json:"id"`
	sale.Incident
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy *string    `json:"resolvedBy,omitempty"`
}

// IncidentRepo provides access to the sale_incidents table.
type IncidentRepo struct {
	db *sql.DB
}

// NewIncidentRepo returns an IncidentRepo bound to db.
func NewIncidentRepo(db *sql.DB) *IncidentRepo { return &IncidentRepo{db: db} }

// Create inserts an incident and returns its id.
func (r *IncidentRepo) Create(ctx context.Context, inc sale.Incident) (string, error) {
	id := uuid.NewString()
	var transID sql.NullString
	if inc.TransID != "" {
		transID = sql.NullString{String: inc.TransID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sale_incidents (id, session_id, staff_id, order_id, order_code, trans_id, kind, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inc.SessionID, inc.StaffID, inc.OrderID, inc.OrderCode, transID, inc.Kind, inc.Detail, inc.At.UTC(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListOpen returns unresolved incidents, oldest first.  limit <= 0 means
// 100.
func (r *IncidentRepo) ListOpen(ctx context.Context, limit int) ([]IncidentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, staff_id, order_id, order_code, trans_id, kind, detail, occurred_at
		 FROM sale_incidents WHERE resolved_at IS NULL ORDER BY occurred_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []IncidentRecord{}
	for rows.Next() {
		var (
			rec     IncidentRecord
			transID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StaffID, &rec.OrderID, &rec.OrderCode,
			&transID, &rec.Kind, &rec.Detail, &rec.At); err != nil {
			return nil, err
		}
		rec.TransID = transID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Resolve marks an incident as handled by staffID.  It returns ErrNotFound
// for unknown ids and ErrConflict when the incident is already resolved.
func (r *IncidentRepo) Resolve(ctx context.Context, id, staffID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sale_incidents SET resolved_at = UTC_TIMESTAMP(), resolved_by = ? WHERE id = ? AND resolved_at IS NULL`,
		staffID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var resolvedAt sql.NullTime
	err = r.db.QueryRowContext(ctx, `SELECT resolved_at FROM sale_incidents WHERE id = ?`, id).Scan(&resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

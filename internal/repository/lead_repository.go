package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shutterbloom/booking-api/internal/model"
)

// LeadRepo persists rows of the `leads` table. Leads are append-only: the
// store generates the identifier and nothing here deletes or mutates rows.
type LeadRepo struct{ DB *sql.DB }

func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{DB: db} }

// Create inserts a lead and returns it with the generated ID and timestamp.
func (r *LeadRepo) Create(ctx context.Context, name, email, phone string) (model.Lead, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO leads (name, email, phone) VALUES (?,?,?)",
		name, email, phone)
	if err != nil {
		return model.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Lead{}, err
	}

	var l model.Lead
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,phone,created_at FROM leads WHERE id=? LIMIT 1",
		id).Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.CreatedAt)
	if err != nil {
		return model.Lead{}, fmt.Errorf("select lead: %w", err)
	}
	return l, nil
}

// List returns all captured leads, newest first.
func (r *LeadRepo) List(ctx context.Context) ([]model.Lead, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,phone,created_at FROM leads ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]model.Lead, 0)
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

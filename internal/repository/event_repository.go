package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shutterbloom/booking-api/internal/model"
)

const eventColumns = "id,nomeCliente,tipoEvento,dataOrcamento,dataEvento,status," +
	"valorEvento,iraParcelar,quantParcelas,dataPrimeiroPagamento,contatoCliente,motivoRecusa," +
	"created_at,updated_at,user_id"

// EventRepo persists rows of the `events` table. Every query is scoped to
// the owning user, so an event that exists but belongs to someone else is
// indistinguishable from one that does not exist.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// Create inserts a new event owned by userID and fills in the generated ID
// plus server-side timestamps.
func (r *EventRepo) Create(ctx context.Context, e *model.Event, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events
		 (nomeCliente,tipoEvento,dataOrcamento,dataEvento,status,
		  valorEvento,iraParcelar,quantParcelas,dataPrimeiroPagamento,contatoCliente,motivoRecusa,user_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.NomeCliente, e.TipoEvento, e.DataOrcamento, e.DataEvento, string(e.Status),
		e.ValorEvento, e.IraParcelar, e.QuantParcelas, e.DataPrimeiroPagamento,
		e.ContatoCliente, e.MotivoRecusa, userID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	created, err := r.GetByIDAndUser(ctx, e.ID, userID)
	if err != nil {
		return err
	}
	*e = created
	return nil
}

// GetByIDAndUser fetches one event owned by userID.
func (r *EventRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? AND user_id=? LIMIT 1", id, userID)
	return scanEvent(row)
}

// ListByUser returns the user's events with skip/limit pagination.
func (r *EventRepo) ListByUser(ctx context.Context, userID uint64, skip, limit int) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Update applies a sparse patch inside a transaction: the current row is
// loaded with a row lock, the patch is merged, the effective state is
// validated and only then written back. Either every patched field commits
// or none does. Validation failures roll back and surface unchanged.
func (r *EventRepo) Update(ctx context.Context, id, userID uint64, patch model.EventPatch) (model.Event, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? AND user_id=? LIMIT 1 FOR UPDATE", id, userID)
	e, err := scanEvent(row)
	if err != nil {
		return model.Event{}, err
	}

	e.Apply(patch)
	if err := e.ValidateStatusFields(); err != nil {
		return model.Event{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET
		 nomeCliente=?, tipoEvento=?, dataOrcamento=?, dataEvento=?, status=?,
		 valorEvento=?, iraParcelar=?, quantParcelas=?, dataPrimeiroPagamento=?,
		 contatoCliente=?, motivoRecusa=?, updated_at=UTC_TIMESTAMP()
		 WHERE id=? AND user_id=?`,
		e.NomeCliente, e.TipoEvento, e.DataOrcamento, e.DataEvento, string(e.Status),
		e.ValorEvento, e.IraParcelar, e.QuantParcelas, e.DataPrimeiroPagamento,
		e.ContatoCliente, e.MotivoRecusa, id, userID); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Event{}, fmt.Errorf("commit: %w", err)
	}
	return r.GetByIDAndUser(ctx, id, userID)
}

// Delete removes an event owned by userID.
func (r *EventRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM events WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(rs rowScanner) (model.Event, error) {
	var (
		e         model.Event
		status    string
		updatedAt sql.NullTime
	)
	err := rs.Scan(
		&e.ID, &e.NomeCliente, &e.TipoEvento, &e.DataOrcamento, &e.DataEvento, &status,
		&e.ValorEvento, &e.IraParcelar, &e.QuantParcelas, &e.DataPrimeiroPagamento,
		&e.ContatoCliente, &e.MotivoRecusa, &e.CreatedAt, &updatedAt, &e.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.Status = model.EventStatus(status)
	if updatedAt.Valid {
		t := updatedAt.Time
		e.UpdatedAt = &t
	}
	return e, nil
}

package store

import (
	"context"
	"errors"
	"event-registration/common/contract"
	"event-registration/common/errs"
	"event-registration/model"
	"fmt"
	"github.com/jackc/pgx/v5"
)

// InventoryStore owns ticket-type capacity. Reservation is a single
// conditional UPDATE: the precondition available_quantity >= quantity is
// checked at write time by the database, so concurrent reservations on the
// same ticket type can never oversell.
type InventoryStore struct {
	Db contract.DbConn
}

const reserveQuery = `UPDATE ticket_types
SET available_quantity = available_quantity - $2
WHERE id = $1 AND is_active = true AND available_quantity >= $2`

// Reserve atomically decrements available capacity. Returns
// InsufficientInventoryError when the ticket type exists but cannot cover
// the quantity, NotFoundError when it does not exist or is inactive.
func (s *InventoryStore) Reserve(ctx context.Context, ticketTypeID string, quantity int32) error {
	if quantity < 1 {
		return fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	cmd, err := s.Db.Exec(ctx, reserveQuery, ticketTypeID, quantity)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.Db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket_types WHERE id = $1 AND is_active = true)`,
		ticketTypeID,
	).Scan(&exists)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	if !exists {
		return &errs.NotFoundError{Entity: "ticket_type", ID: ticketTypeID}
	}

	return &errs.InsufficientInventoryError{TicketTypeID: ticketTypeID}
}

const releaseQuery = `UPDATE ticket_types
SET available_quantity = LEAST(available_quantity + $2, max_quantity)
WHERE id = $1`

// Release returns previously reserved capacity, clamped at max_quantity so
// a compensating release can never fail on the upper bound.
func (s *InventoryStore) Release(ctx context.Context, ticketTypeID string, quantity int32) error {
	if quantity < 1 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	cmd, err := s.Db.Exec(ctx, releaseQuery, ticketTypeID, quantity)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	if cmd.RowsAffected() == 0 {
		return &errs.NotFoundError{Entity: "ticket_type", ID: ticketTypeID}
	}

	return nil
}

// GetAvailableQuantity reads the current counter for one ticket type.
func (s *InventoryStore) GetAvailableQuantity(ctx context.Context, ticketTypeID string) (int32, error) {
	var available int32
	err := s.Db.QueryRow(ctx,
		`SELECT available_quantity FROM ticket_types WHERE id = $1`, ticketTypeID,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &errs.NotFoundError{Entity: "ticket_type", ID: ticketTypeID}
		}
		return 0, &errs.PersistenceError{Cause: err}
	}

	return available, nil
}

// ListAvailability returns current counters for every active ticket type,
// used to seed the redis cache and the availability snapshot.
func (s *InventoryStore) ListAvailability(ctx context.Context) ([]model.TicketType, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, event_id, name, price, max_quantity, available_quantity
		 FROM ticket_types
		 WHERE is_active = true
		 ORDER BY event_id, name`,
	)
	if err != nil {
		return nil, &errs.PersistenceError{Cause: err}
	}
	defer rows.Close()

	var ticketTypes []model.TicketType
	for rows.Next() {
		t := model.TicketType{IsActive: true}
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.MaxQuantity, &t.AvailableQuantity); err != nil {
			return nil, &errs.PersistenceError{Cause: err}
		}
		ticketTypes = append(ticketTypes, t)
	}

	return ticketTypes, rows.Err()
}

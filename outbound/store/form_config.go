package store

import (
	"context"
	"encoding/json"
	"errors"
	"event-registration/common/contract"
	"event-registration/common/errs"
	"event-registration/model"
	"github.com/jackc/pgx/v5"
)

// FormConfigStore is the read-only adapter over event-management data: the
// active registration form and the ticket types configured for an event.
type FormConfigStore struct {
	Db contract.DbConn
}

// GetActiveByEventID returns the active form config for an event, or
// (nil, nil) when none exists.
func (s *FormConfigStore) GetActiveByEventID(ctx context.Context, eventID string) (*model.FormConfig, error) {
	var (
		cfg       model.FormConfig
		fieldsRaw []byte
	)

	err := s.Db.QueryRow(ctx,
		`SELECT id, event_id, title, fields, allow_group_registration, max_group_size,
		        requires_approval, is_active, created_at, updated_at
		 FROM form_configs
		 WHERE event_id = $1 AND is_active = true`,
		eventID,
	).Scan(
		&cfg.ID, &cfg.EventID, &cfg.Title, &fieldsRaw, &cfg.AllowGroupRegistration,
		&cfg.MaxGroupSize, &cfg.RequiresApproval, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &errs.PersistenceError{Cause: err}
	}

	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &cfg.Fields); err != nil {
			return nil, &errs.PersistenceError{Cause: err}
		}
	}

	return &cfg, nil
}

// ListTicketTypes returns all ticket types of an event, active or not. The
// orchestrator filters on sales window and active flag itself.
func (s *FormConfigStore) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, event_id, name, price, max_quantity, available_quantity, is_active,
		        sales_start_date, sales_end_date
		 FROM ticket_types
		 WHERE event_id = $1
		 ORDER BY name`,
		eventID,
	)
	if err != nil {
		return nil, &errs.PersistenceError{Cause: err}
	}
	defer rows.Close()

	var ticketTypes []model.TicketType
	for rows.Next() {
		var t model.TicketType
		err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.Price, &t.MaxQuantity, &t.AvailableQuantity,
			&t.IsActive, &t.SalesStartDate, &t.SalesEndDate,
		)
		if err != nil {
			return nil, &errs.PersistenceError{Cause: err}
		}
		ticketTypes = append(ticketTypes, t)
	}

	return ticketTypes, rows.Err()
}

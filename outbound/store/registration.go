package store

import (
	"context"
	"encoding/json"
	"errors"
	"event-registration/common/contract"
	"event-registration/common/errs"
	"event-registration/model"
	"github.com/jackc/pgx/v5"
	"time"
)

type RegistrationStore struct {
	Db contract.DbConn

	TimeNow func() time.Time
}

func (s *RegistrationStore) now() time.Time {
	if s.TimeNow != nil {
		return s.TimeNow()
	}
	return time.Now()
}

const insertRegistrationQuery = `INSERT INTO registrations
(id, event_id, form_config_id, primary_participant, additional_participants, ticket_selections,
 total_amount, status, payment_status, confirmation_code, registration_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Create persists a new registration and stamps created_at/updated_at.
func (s *RegistrationStore) Create(ctx context.Context, reg *model.Registration) error {
	primary, err := json.Marshal(reg.PrimaryParticipant)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	additional, err := json.Marshal(reg.AdditionalParticipants)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	selections, err := json.Marshal(reg.TicketSelections)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	now := s.now()
	reg.CreatedAt = now
	reg.UpdatedAt = now

	_, err = s.Db.Exec(ctx, insertRegistrationQuery,
		reg.ID, reg.EventID, reg.FormConfigID, primary, additional, selections,
		reg.TotalAmount, reg.Status, reg.PaymentStatus, reg.ConfirmationCode,
		reg.RegistrationDate, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	return nil
}

const selectRegistrationColumns = `id, event_id, form_config_id, primary_participant,
additional_participants, ticket_selections, total_amount, status, payment_status,
confirmation_code, registration_date, approved_at, approved_by, created_at, updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var (
		reg        model.Registration
		primary    []byte
		additional []byte
		selections []byte
		approvedBy *string
	)

	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.FormConfigID, &primary, &additional, &selections,
		&reg.TotalAmount, &reg.Status, &reg.PaymentStatus, &reg.ConfirmationCode,
		&reg.RegistrationDate, &reg.ApprovedAt, &approvedBy, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(primary, &reg.PrimaryParticipant); err != nil {
		return nil, err
	}
	if len(additional) > 0 {
		if err := json.Unmarshal(additional, &reg.AdditionalParticipants); err != nil {
			return nil, err
		}
	}
	if len(selections) > 0 {
		if err := json.Unmarshal(selections, &reg.TicketSelections); err != nil {
			return nil, err
		}
	}
	if approvedBy != nil {
		reg.ApprovedBy = *approvedBy
	}

	return &reg, nil
}

func (s *RegistrationStore) Get(ctx context.Context, id string) (*model.Registration, error) {
	row := s.Db.QueryRow(ctx,
		`SELECT `+selectRegistrationColumns+` FROM registrations WHERE id = $1`, id)

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &errs.NotFoundError{Entity: "registration", ID: id}
		}
		return nil, &errs.PersistenceError{Cause: err}
	}

	return reg, nil
}

func (s *RegistrationStore) GetByConfirmationCode(ctx context.Context, code string) (*model.Registration, error) {
	row := s.Db.QueryRow(ctx,
		`SELECT `+selectRegistrationColumns+` FROM registrations WHERE confirmation_code = $1`, code)

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &errs.NotFoundError{Entity: "registration", ID: code}
		}
		return nil, &errs.PersistenceError{Cause: err}
	}

	return reg, nil
}

// ConfirmationCodeExists probes code uniqueness for the generator's
// collision retry loop.
func (s *RegistrationStore) ConfirmationCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.Db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE confirmation_code = $1) AS "exists"`, code,
	).Scan(&exists)
	if err != nil {
		return false, &errs.PersistenceError{Cause: err}
	}

	return exists, nil
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT `+selectRegistrationColumns+`
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY registration_date DESC`,
		eventID,
	)
	if err != nil {
		return nil, &errs.PersistenceError{Cause: err}
	}
	defer rows.Close()

	var registrations []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, &errs.PersistenceError{Cause: err}
		}
		registrations = append(registrations, *reg)
	}

	return registrations, rows.Err()
}

const updateStatusQuery = `UPDATE registrations
SET status = $2, payment_status = $3,
    approved_at = COALESCE(approved_at, $4), approved_by = COALESCE(approved_by, $5),
    updated_at = $6
WHERE id = $1`

// UpdateStatus persists a transition already validated by the caller.
// approved_at is only ever set once.
func (s *RegistrationStore) UpdateStatus(ctx context.Context, id string, status model.RegistrationStatus, paymentStatus model.PaymentStatus, approvedAt *time.Time, approvedBy *string) error {
	cmd, err := s.Db.Exec(ctx, updateStatusQuery, id, status, paymentStatus, approvedAt, approvedBy, s.now())
	if err != nil {
		return &errs.PersistenceError{Cause: err}
	}

	if cmd.RowsAffected() == 0 {
		return &errs.NotFoundError{Entity: "registration", ID: id}
	}

	return nil
}

// Summarize aggregates an event's registrations. It is a pure fold over
// ListByEvent so the numbers always agree with the listing endpoint.
func (s *RegistrationStore) Summarize(ctx context.Context, eventID string) (*model.RegistrationSummary, error) {
	registrations, err := s.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summary := BuildSummary(registrations)
	return &summary, nil
}

// BuildSummary computes the aggregate view of a set of registrations.
// Tickets of cancelled registrations do not count as sold; revenue counts
// only completed payments.
func BuildSummary(registrations []model.Registration) model.RegistrationSummary {
	summary := model.RegistrationSummary{
		TicketsSold:         make(map[string]int32),
		RegistrationsByDate: make(map[string]int),
	}

	for _, reg := range registrations {
		summary.TotalRegistrations++

		switch reg.Status {
		case model.StatusConfirmed:
			summary.ConfirmedRegistrations++
		case model.StatusPending:
			summary.PendingRegistrations++
		case model.StatusCancelled:
			summary.CancelledRegistrations++
		case model.StatusWaitlisted:
			summary.WaitlistedRegistrations++
		}

		if reg.PaymentStatus == model.PaymentCompleted {
			summary.TotalRevenue += reg.TotalAmount
		}

		if reg.Status != model.StatusCancelled {
			for _, sel := range reg.TicketSelections {
				summary.TicketsSold[sel.TicketTypeID] += sel.Quantity
			}
		}

		day := reg.RegistrationDate.Format(time.DateOnly)
		summary.RegistrationsByDate[day]++
	}

	return summary
}

package errs

import "fmt"

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

// ValidationError reports per-field failures keyed by field name.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.FieldErrors)
}

// FormNotActiveError is returned when no active form config exists for an
// event. Detected before any side effect.
type FormNotActiveError struct {
	EventID string
}

func (e *FormNotActiveError) Error() string {
	return fmt.Sprintf("no active registration form for event %s", e.EventID)
}

// InsufficientInventoryError names the ticket type that could not be
// reserved. Any reservations granted earlier in the same submission have
// already been released when this error is returned.
type InsufficientInventoryError struct {
	TicketTypeID string
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for ticket type %s", e.TicketTypeID)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// InvalidTransitionError is returned when a status or payment-status change
// is not allowed by the state machine.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

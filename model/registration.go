package model

import "time"

type RegistrationStatus string

const (
	StatusPending    RegistrationStatus = "pending"
	StatusConfirmed  RegistrationStatus = "confirmed"
	StatusCancelled  RegistrationStatus = "cancelled"
	StatusWaitlisted RegistrationStatus = "waitlisted"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusWaitlisted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type UploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type Participant struct {
	ID                string            `json:"id"`
	FirstName         string            `json:"first_name"`
	LastName          string            `json:"last_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone,omitempty"`
	CustomFieldValues map[string]string `json:"custom_field_values,omitempty"`
	Files             []UploadedFile    `json:"files,omitempty"`
}

// TicketSelection snapshots the unit price at submission time. The stored
// price is authoritative for totals, never a caller-supplied value.
type TicketSelection struct {
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int32  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
}

type Registration struct {
	ID                     string             `json:"id"`
	EventID                string             `json:"event_id"`
	FormConfigID           string             `json:"form_config_id"`
	PrimaryParticipant     Participant        `json:"primary_participant"`
	AdditionalParticipants []Participant      `json:"additional_participants,omitempty"`
	TicketSelections       []TicketSelection  `json:"ticket_selections"`
	TotalAmount            int64              `json:"total_amount"`
	Status                 RegistrationStatus `json:"status"`
	PaymentStatus          PaymentStatus      `json:"payment_status"`
	ConfirmationCode       string             `json:"confirmation_code"`
	RegistrationDate       time.Time          `json:"registration_date"`
	ApprovedAt             *time.Time         `json:"approved_at,omitempty"`
	ApprovedBy             string             `json:"approved_by,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

type RegistrationSummary struct {
	TotalRegistrations      int              `json:"total_registrations"`
	ConfirmedRegistrations  int              `json:"confirmed_registrations"`
	PendingRegistrations    int              `json:"pending_registrations"`
	CancelledRegistrations  int              `json:"cancelled_registrations"`
	WaitlistedRegistrations int              `json:"waitlisted_registrations"`
	TotalRevenue            int64            `json:"total_revenue"`
	TicketsSold             map[string]int32 `json:"tickets_sold"`
	RegistrationsByDate     map[string]int   `json:"registrations_by_date"`
}

package model

type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

type ParticipantPayload struct {
	FirstName         string            `json:"first_name" validate:"required,max=100"`
	LastName          string            `json:"last_name" validate:"required,max=100"`
	Email             string            `json:"email" validate:"required,email"`
	Phone             string            `json:"phone,omitempty"`
	CustomFieldValues map[string]string `json:"custom_field_values,omitempty"`
	Files             []UploadedFile    `json:"files,omitempty"`
}

type TicketSelectionPayload struct {
	TicketTypeID string `json:"ticket_type_id" validate:"required"`
	Quantity     int32  `json:"quantity" validate:"required,min=1"`
}

type SubmitRegistrationRequest struct {
	PrimaryParticipant     ParticipantPayload       `json:"primary_participant" validate:"required"`
	AdditionalParticipants []ParticipantPayload     `json:"additional_participants,omitempty" validate:"dive"`
	TicketSelections       []TicketSelectionPayload `json:"ticket_selections" validate:"required,min=1,dive"`
}

type SubmitRegistrationResponse struct {
	ID               string `json:"id"`
	ConfirmationCode string `json:"confirmation_code"`
}

type UpdateStatusRequest struct {
	Status        RegistrationStatus `json:"status" validate:"required"`
	PaymentStatus PaymentStatus      `json:"payment_status,omitempty"`
	ApprovedBy    string             `json:"approved_by,omitempty"`
}

type PaymentCallbackRequest struct {
	ConfirmationCode string `json:"confirmation_code" validate:"required,len=8"`
	Succeeded        bool   `json:"succeeded"`
}

type ListTicketTypesResponse struct {
	TicketTypes []TicketAvailability `json:"ticket_types"`
}

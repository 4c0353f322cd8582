package model

type RegistrationCreatedEventMessage struct {
	ID               string             `json:"id"`
	EventID          string             `json:"event_id"`
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	ConfirmationCode string             `json:"confirmation_code"`
	TotalAmount      int64              `json:"total_amount"`
	Status           RegistrationStatus `json:"status"`
}

type PaymentCallbackEventMessage struct {
	ConfirmationCode string `json:"confirmation_code"`
	Succeeded        bool   `json:"succeeded"`
}

type InventorySyncEventMessage struct {
	TicketTypeID      string `json:"ticket_type_id"`
	AvailableQuantity int32  `json:"available_quantity"`
}

type SendEmailEventMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

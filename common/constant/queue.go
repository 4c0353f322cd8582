package constant

const (
	QueueStreamName = "event_registration_queue_stream"
)

const (
	AllWildcard          = "events.>"
	RegistrationWildcard = "events.registration.>"
	InventoryWildcard    = "events.inventory.>"
	EmailWildcard        = "events.email.>"

	SubjectRegistrationCreated = "events.registration.create"
	SubjectPaymentCallback     = "events.registration.payment"
	SubjectInventorySync       = "events.inventory.sync"
	SubjectSendEmail           = "events.email.send"
)

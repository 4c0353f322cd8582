package constant

import "time"

const (
	TicketTypeQuantityKey = "ticket_type:%s:quantity"
	SubmissionEmailLock   = "registration:email_lock:%s:%s"
)

const (
	SubmissionEmailLockDefaultTTL = 1 * time.Minute
)

package registration

import "event-registration/model"

// statusTransitions encodes the registration lifecycle: pending may move
// anywhere, waitlisted may be confirmed or cancelled, confirmed may only be
// cancelled, cancelled is terminal.
var statusTransitions = map[model.RegistrationStatus][]model.RegistrationStatus{
	model.StatusPending:    {model.StatusConfirmed, model.StatusCancelled, model.StatusWaitlisted},
	model.StatusWaitlisted: {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed:  {model.StatusCancelled},
	model.StatusCancelled:  {},
}

// paymentTransitions is independent of the registration status machine.
var paymentTransitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentPending:   {model.PaymentCompleted, model.PaymentFailed},
	model.PaymentCompleted: {model.PaymentRefunded},
	model.PaymentFailed:    {},
	model.PaymentRefunded:  {},
}

func CanTransitionStatus(from, to model.RegistrationStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to model.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

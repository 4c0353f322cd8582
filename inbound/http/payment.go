package http

import (
	"encoding/json"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/errs"
	"event-registration/model"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
	"log/slog"
	"net/http"
)

type PaymentHttp struct {
	Publisher jetstream.Publisher
	Validate  *validator.Validate
}

func RegisterPaymentHttp(
	mux *http.ServeMux,
	publisher jetstream.Publisher,
	validate *validator.Validate,
) *PaymentHttp {
	in := &PaymentHttp{
		Publisher: publisher,
		Validate:  validate,
	}

	mux.HandleFunc("POST /api/payments/callback", in.callback)

	return in
}

// callback accepts the external payment provider's notification and hands it
// to the queue; settlement itself happens elsewhere, only the payment status
// of the registration is tracked here.
func (in PaymentHttp) callback(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	err := common.PublishMessage(ctx, in.Publisher, constant.SubjectPaymentCallback, model.PaymentCallbackEventMessage{
		ConfirmationCode: req.ConfirmationCode,
		Succeeded:        req.Succeeded,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error publish message when callback payment", slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

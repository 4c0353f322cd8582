package event

import (
	"context"
	"encoding/json"
	"errors"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/errs"
	"event-registration/common/otel"
	"event-registration/model"
	"event-registration/outbound/store"
	"event-registration/registration"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/message"
)

type RegistrationEvent struct {
	Orchestrator      *registration.Orchestrator
	RegistrationStore *store.RegistrationStore
	InventoryStore    *store.InventoryStore
	Cache             *redis.Client
	Publisher         jetstream.Publisher
	CurrencyFormatter *message.Printer

	Timeout time.Duration
}

// CreatedHandler builds the confirmation (or approval-pending) email for a
// freshly submitted registration and hands it to the email queue.
func (in RegistrationEvent) CreatedHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.RegistrationCreatedEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "registration created event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	traceIdAttr := slog.String(constant.LogFieldTraceId, ulid.Make().String())
	reqAttr := slog.Any(constant.LogFieldPayload, string(msg))

	subject := "Registration Confirmed"
	template := constant.EmailRegistrationConfirmedTemplate
	if req.Status == model.StatusPending {
		subject = "Registration Received"
		template = constant.EmailRegistrationPendingTemplate
	}

	sendEmailReq := model.SendEmailEventMessage{
		To:      req.Email,
		Subject: subject,
		Body:    in.buildRegistrationEmailBody(template, req),
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, sendEmailReq)
	if err != nil {
		slog.ErrorContext(ctx, "registration created event publish error", slog.Any(constant.LogFieldErr, err), reqAttr, traceIdAttr)
		return err
	}

	slog.DebugContext(ctx, "registration created event publish success", reqAttr, traceIdAttr)

	return nil
}

func (in RegistrationEvent) buildRegistrationEmailBody(template string, req model.RegistrationCreatedEventMessage) string {
	totalFormatted := in.CurrencyFormatter.Sprintf("$%d", req.TotalAmount)
	name := req.Name
	if name == "" {
		name = "Attendee"
	}

	return fmt.Sprintf(template, name, req.ConfirmationCode, totalFormatted)
}

// PaymentCallbackHandler applies a payment outcome to the registration
// identified by its confirmation code. A missing registration is logged and
// acked, not retried forever.
func (in RegistrationEvent) PaymentCallbackHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.PaymentCallbackEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "payment callback event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "RegistrationEvent.PaymentCallbackHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "payment callback event receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	reg, err := in.RegistrationStore.GetByConfirmationCode(ctx, req.ConfirmationCode)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			slog.WarnContext(ctx, "registration not found for payment callback", traceIdAttr)
			return nil
		}

		slog.ErrorContext(ctx, "failed to get registration", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	err = in.Orchestrator.ApplyPaymentOutcome(ctx, reg, req.Succeeded)
	if err != nil {
		var transitionErr *errs.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			slog.WarnContext(ctx, "payment outcome not applicable", traceIdAttr, slog.Any(constant.LogFieldErr, err))
			return nil
		}

		slog.ErrorContext(ctx, "failed to apply payment outcome", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.InfoContext(ctx, "payment outcome applied", traceIdAttr)

	return nil
}

// InventorySyncHandler refreshes the redis counter of one ticket type from
// the database. Counters are a read cache, never the reservation authority,
// so overwriting with the store value is always safe.
func (in RegistrationEvent) InventorySyncHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.InventorySyncEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "inventory sync event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "RegistrationEvent.InventorySyncHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	available, err := in.InventoryStore.GetAvailableQuantity(ctx, req.TicketTypeID)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			slog.WarnContext(ctx, "ticket type not found for inventory sync", traceIdAttr)
			return nil
		}

		slog.ErrorContext(ctx, "failed to read ticket type quantity", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	err = in.Cache.Set(ctx, fmt.Sprintf(constant.TicketTypeQuantityKey, req.TicketTypeID), available, 0).Err()
	if err != nil {
		slog.ErrorContext(ctx, "failed to set ticket type counter", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.DebugContext(ctx, "inventory counter synced", traceIdAttr, slog.String("ticket_type_id", req.TicketTypeID))

	return nil
}

package http

import (
	"encoding/json"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/errs"
	"event-registration/common/otel"
	"event-registration/model"
	"event-registration/outbound/store"
	"event-registration/registration"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
)

type RegistrationHttp struct {
	Orchestrator *registration.Orchestrator
	Store        *store.RegistrationStore
	Cache        *redis.Client
	Publisher    jetstream.Publisher
	Validate     *validator.Validate
}

func RegisterRegistrationHttp(
	mux *http.ServeMux,
	orchestrator *registration.Orchestrator,
	registrationStore *store.RegistrationStore,
	cache *redis.Client,
	publisher jetstream.Publisher,
	validate *validator.Validate,
) *RegistrationHttp {
	in := &RegistrationHttp{
		Orchestrator: orchestrator,
		Store:        registrationStore,
		Cache:        cache,
		Publisher:    publisher,
		Validate:     validate,
	}

	mux.HandleFunc("POST /api/events/{eventID}/registrations", in.submit)
	mux.HandleFunc("GET /api/events/{eventID}/registrations", in.list)
	mux.HandleFunc("GET /api/events/{eventID}/registrations/summary", in.summary)
	mux.HandleFunc("PATCH /api/registrations/{id}/status", in.updateStatus)

	return in
}

func (in RegistrationHttp) submit(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")

	var req model.SubmitRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "RegistrationHttp.submit")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "submit registration receive request", slog.String("event_id", eventID), traceIdAttr)

	lockKey := fmt.Sprintf(constant.SubmissionEmailLock, eventID, req.PrimaryParticipant.Email)
	emailLock, err := in.Cache.SetNX(ctx, lockKey, true, constant.SubmissionEmailLockDefaultTTL).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to set email lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if !emailLock {
		slog.DebugContext(ctx, "duplicate submission in flight", traceIdAttr)
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "A submission for this email is already in progress"})
		return
	}

	result, err := in.Orchestrator.Submit(ctx, eventID, req)
	if err != nil {
		slog.ErrorContext(ctx, "submit registration failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectRegistrationCreated, model.RegistrationCreatedEventMessage{
		ID:               result.ID,
		EventID:          eventID,
		Name:             req.PrimaryParticipant.FirstName + " " + req.PrimaryParticipant.LastName,
		Email:            req.PrimaryParticipant.Email,
		ConfirmationCode: result.ConfirmationCode,
		TotalAmount:      result.TotalAmount,
		Status:           result.Status,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish registration created message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	for _, ticketTypeID := range result.TicketTypeIDs {
		err = common.PublishMessage(ctx, in.Publisher, constant.SubjectInventorySync, model.InventorySyncEventMessage{
			TicketTypeID: ticketTypeID,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish inventory sync message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		}
	}

	slog.InfoContext(ctx, "submit registration success", traceIdAttr, slog.Any(constant.LogFieldResponse, result.ID))

	writeJSONResponse(w, http.StatusOK, model.SubmitRegistrationResponse{
		ID:               result.ID,
		ConfirmationCode: result.ConfirmationCode,
	})
}

func (in RegistrationHttp) list(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")

	ctx, span := otel.Tracer.Start(r.Context(), "RegistrationHttp.list")
	defer span.End()

	registrations, err := in.Store.ListByEvent(ctx, eventID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list registrations", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if registrations == nil {
		registrations = []model.Registration{}
	}

	writeJSONResponse(w, http.StatusOK, registrations)
}

func (in RegistrationHttp) summary(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")

	ctx, span := otel.Tracer.Start(r.Context(), "RegistrationHttp.summary")
	defer span.End()

	summary, err := in.Store.Summarize(ctx, eventID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to summarize registrations", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, summary)
}

func (in RegistrationHttp) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req model.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "RegistrationHttp.updateStatus")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "update status receive request", slog.String("registration_id", id), slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	reg, err := in.Orchestrator.UpdateStatus(ctx, id, req.Status, req.PaymentStatus, req.ApprovedBy)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update registration status", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if reg.Status == model.StatusCancelled {
		err = common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, model.SendEmailEventMessage{
			To:      reg.PrimaryParticipant.Email,
			Subject: "Registration Cancelled",
			Body: fmt.Sprintf(constant.EmailRegistrationCancelledTemplate,
				reg.PrimaryParticipant.FirstName, reg.ConfirmationCode, fmt.Sprintf("$%d", reg.TotalAmount)),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish cancellation email", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		}
	}

	writeJSONResponse(w, http.StatusOK, reg)
}

package registration

import (
	"context"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/errs"
	"event-registration/common/otel"
	"event-registration/model"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// FormConfigProvider supplies the active form definition and the ticket-type
// set for an event. Read-only from this subsystem's perspective.
type FormConfigProvider interface {
	GetActiveByEventID(ctx context.Context, eventID string) (*model.FormConfig, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)
}

// InventoryReserver is the only path to ticket-type capacity. Reserve must
// be an atomic conditional decrement; Release is its compensating inverse.
type InventoryReserver interface {
	Reserve(ctx context.Context, ticketTypeID string, quantity int32) error
	Release(ctx context.Context, ticketTypeID string, quantity int32) error
}

// Store persists registrations.
type Store interface {
	Create(ctx context.Context, reg *model.Registration) error
	Get(ctx context.Context, id string) (*model.Registration, error)
	ConfirmationCodeExists(ctx context.Context, code string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status model.RegistrationStatus, paymentStatus model.PaymentStatus, approvedAt *time.Time, approvedBy *string) error
}

// SubmitResult is what a successful submission yields, with enough context
// for callers to publish follow-up messages.
type SubmitResult struct {
	ID               string
	ConfirmationCode string
	TotalAmount      int64
	Status           model.RegistrationStatus
	PaymentStatus    model.PaymentStatus
	TicketTypeIDs    []string
}

// Orchestrator coordinates validation, reservation, pricing and persistence
// for a submission, owning rollback of reservations on any later failure.
type Orchestrator struct {
	Forms     FormConfigProvider
	Inventory InventoryReserver
	Store     Store
	Codes     *CodeGenerator

	StoreTimeout time.Duration
	TimeNow      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.TimeNow != nil {
		return o.TimeNow()
	}
	return time.Now()
}

func (o *Orchestrator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := o.StoreTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Submit runs the submission pipeline in strict order: validate (no side
// effects), reserve per distinct ticket type, price from the loaded
// snapshot, persist. Every failure after the first successful reservation
// releases all granted reservations, in reverse order, before returning.
func (o *Orchestrator) Submit(ctx context.Context, eventID string, req model.SubmitRegistrationRequest) (*SubmitResult, error) {
	ctx, span := otel.Tracer.Start(ctx, "Orchestrator.Submit")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	formConfig, err := o.Forms.GetActiveByEventID(ctx, eventID)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}
	if formConfig == nil || !formConfig.IsActive {
		return nil, &errs.FormNotActiveError{EventID: eventID}
	}

	if fieldErrors := o.validateGroupSize(formConfig, req); fieldErrors != nil {
		return nil, &errs.ValidationError{FieldErrors: fieldErrors}
	}

	validators := Compile(ctx, formConfig.Fields)
	if fieldErrors := validateParticipants(req, validators); len(fieldErrors) > 0 {
		return nil, &errs.ValidationError{FieldErrors: fieldErrors}
	}

	ticketTypes, err := o.Forms.ListTicketTypes(ctx, eventID)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	now := o.now()
	quantities, order, err := o.checkSelections(req.TicketSelections, ticketTypes, now)
	if err != nil {
		return nil, err
	}

	reserved, err := o.reserveAll(ctx, quantities, order)
	if err != nil {
		o.releaseAll(ctx, quantities, reserved, traceIdAttr)
		common.UtilSpanError(span, err)
		return nil, err
	}

	result, err := o.persist(ctx, eventID, formConfig, req, ticketTypes, now)
	if err != nil {
		o.releaseAll(ctx, quantities, reserved, traceIdAttr)
		common.UtilSpanError(span, err)
		return nil, err
	}

	result.TicketTypeIDs = order

	slog.InfoContext(ctx, "registration submitted", traceIdAttr,
		slog.String("registration_id", result.ID),
		slog.String("event_id", eventID),
	)

	return result, nil
}

func (o *Orchestrator) validateGroupSize(formConfig *model.FormConfig, req model.SubmitRegistrationRequest) map[string]string {
	participants := 1 + len(req.AdditionalParticipants)

	if len(req.AdditionalParticipants) > 0 && !formConfig.AllowGroupRegistration {
		return map[string]string{"additional_participants": "group registration is not allowed"}
	}

	if formConfig.MaxGroupSize > 0 && participants > formConfig.MaxGroupSize {
		return map[string]string{
			"additional_participants": fmt.Sprintf("group size %d exceeds the maximum of %d", participants, formConfig.MaxGroupSize),
		}
	}

	return nil
}

func validateParticipants(req model.SubmitRegistrationRequest, validators []FieldValidator) map[string]string {
	fieldErrors := make(map[string]string)

	for name, msg := range ValidateParticipant(req.PrimaryParticipant, validators) {
		fieldErrors[name] = msg
	}

	for i, participant := range req.AdditionalParticipants {
		for name, msg := range ValidateParticipant(participant, validators) {
			fieldErrors[fmt.Sprintf("additional_participants[%d].%s", i, name)] = msg
		}
	}

	return fieldErrors
}

// checkSelections aggregates quantities per distinct ticket type (preserving
// first-appearance order for deterministic reserve/release sequencing) and
// rejects unknown or off-sale ticket types before any side effect.
func (o *Orchestrator) checkSelections(selections []model.TicketSelectionPayload, ticketTypes []model.TicketType, now time.Time) (map[string]int32, []string, error) {
	byID := make(map[string]model.TicketType, len(ticketTypes))
	for _, t := range ticketTypes {
		byID[t.ID] = t
	}

	quantities := make(map[string]int32)
	var order []string

	for _, sel := range selections {
		ticketType, ok := byID[sel.TicketTypeID]
		if !ok {
			return nil, nil, &errs.NotFoundError{Entity: "ticket_type", ID: sel.TicketTypeID}
		}

		if !ticketType.OnSale(now) {
			return nil, nil, &errs.ValidationError{FieldErrors: map[string]string{
				"ticket_selections": fmt.Sprintf("ticket type %s is not on sale", sel.TicketTypeID),
			}}
		}

		if sel.Quantity < 1 {
			return nil, nil, &errs.ValidationError{FieldErrors: map[string]string{
				"ticket_selections": "quantity must be at least 1",
			}}
		}

		if _, seen := quantities[sel.TicketTypeID]; !seen {
			order = append(order, sel.TicketTypeID)
		}
		quantities[sel.TicketTypeID] += sel.Quantity
	}

	return quantities, order, nil
}

// reserveAll reserves each distinct ticket type in order. It returns the ids
// actually granted so far; on error the caller must release exactly those.
func (o *Orchestrator) reserveAll(ctx context.Context, quantities map[string]int32, order []string) ([]string, error) {
	reserved := make([]string, 0, len(order))

	for _, ticketTypeID := range order {
		reserveCtx, cancel := o.storeCtx(ctx)
		err := o.Inventory.Reserve(reserveCtx, ticketTypeID, quantities[ticketTypeID])
		cancel()

		if err != nil {
			return reserved, err
		}

		reserved = append(reserved, ticketTypeID)
	}

	return reserved, nil
}

// releaseAll compensates granted reservations in reverse order. It runs on a
// context detached from the caller so a disconnect or timeout cannot leave
// inventory decremented without a persisted registration.
func (o *Orchestrator) releaseAll(ctx context.Context, quantities map[string]int32, reserved []string, traceIdAttr slog.Attr) {
	base := context.WithoutCancel(ctx)

	for i := len(reserved) - 1; i >= 0; i-- {
		ticketTypeID := reserved[i]

		releaseCtx, cancel := o.storeCtx(base)
		err := o.Inventory.Release(releaseCtx, ticketTypeID, quantities[ticketTypeID])
		cancel()

		if err != nil {
			slog.ErrorContext(ctx, "failed to release reservation during rollback", traceIdAttr,
				slog.String("ticket_type_id", ticketTypeID),
				slog.Any(constant.LogFieldErr, err),
			)
		}
	}
}

func (o *Orchestrator) persist(ctx context.Context, eventID string, formConfig *model.FormConfig, req model.SubmitRegistrationRequest, ticketTypes []model.TicketType, now time.Time) (*SubmitResult, error) {
	priceByID := make(map[string]int64, len(ticketTypes))
	for _, t := range ticketTypes {
		priceByID[t.ID] = t.Price
	}

	var totalAmount int64
	ticketSelections := make([]model.TicketSelection, 0, len(req.TicketSelections))
	for _, sel := range req.TicketSelections {
		price := priceByID[sel.TicketTypeID]
		totalAmount += price * int64(sel.Quantity)
		ticketSelections = append(ticketSelections, model.TicketSelection{
			TicketTypeID: sel.TicketTypeID,
			Quantity:     sel.Quantity,
			UnitPrice:    price,
		})
	}

	status := model.StatusConfirmed
	if formConfig.RequiresApproval {
		status = model.StatusPending
	}

	paymentStatus := model.PaymentPending
	if totalAmount == 0 {
		paymentStatus = model.PaymentCompleted
	}

	codeCtx, cancel := o.storeCtx(ctx)
	code, err := o.Codes.GenerateUnique(codeCtx, o.Store.ConfirmationCodeExists)
	cancel()
	if err != nil {
		return nil, &errs.PersistenceError{Cause: err}
	}

	reg := &model.Registration{
		ID:                     ulid.Make().String(),
		EventID:                eventID,
		FormConfigID:           formConfig.ID,
		PrimaryParticipant:     toParticipant(req.PrimaryParticipant),
		AdditionalParticipants: toParticipants(req.AdditionalParticipants),
		TicketSelections:       ticketSelections,
		TotalAmount:            totalAmount,
		Status:                 status,
		PaymentStatus:          paymentStatus,
		ConfirmationCode:       code,
		RegistrationDate:       now,
	}

	createCtx, cancel := o.storeCtx(ctx)
	err = o.Store.Create(createCtx, reg)
	cancel()
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		ID:               reg.ID,
		ConfirmationCode: reg.ConfirmationCode,
		TotalAmount:      reg.TotalAmount,
		Status:           reg.Status,
		PaymentStatus:    reg.PaymentStatus,
	}, nil
}

func toParticipant(p model.ParticipantPayload) model.Participant {
	return model.Participant{
		ID:                ulid.Make().String(),
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		Phone:             p.Phone,
		CustomFieldValues: p.CustomFieldValues,
		Files:             p.Files,
	}
}

func toParticipants(payloads []model.ParticipantPayload) []model.Participant {
	if len(payloads) == 0 {
		return nil
	}

	participants := make([]model.Participant, 0, len(payloads))
	for _, p := range payloads {
		participants = append(participants, toParticipant(p))
	}
	return participants
}

// UpdateStatus transitions a registration through the status state machine.
// Transitioning to confirmed stamps approved_at. Inventory is never touched:
// capacity is committed at submission time.
func (o *Orchestrator) UpdateStatus(ctx context.Context, id string, status model.RegistrationStatus, paymentStatus model.PaymentStatus, approvedBy string) (*model.Registration, error) {
	ctx, span := otel.Tracer.Start(ctx, "Orchestrator.UpdateStatus")
	defer span.End()

	getCtx, cancel := o.storeCtx(ctx)
	reg, err := o.Store.Get(getCtx, id)
	cancel()
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	if !status.IsValid() || !CanTransitionStatus(reg.Status, status) {
		return nil, &errs.InvalidTransitionError{From: string(reg.Status), To: string(status)}
	}

	newPayment := reg.PaymentStatus
	if paymentStatus != "" {
		if !paymentStatus.IsValid() || !CanTransitionPayment(reg.PaymentStatus, paymentStatus) {
			return nil, &errs.InvalidTransitionError{From: string(reg.PaymentStatus), To: string(paymentStatus)}
		}
		newPayment = paymentStatus
	}

	var approvedAt *time.Time
	var approver *string
	if status == model.StatusConfirmed {
		t := o.now()
		approvedAt = &t
		if approvedBy != "" {
			approver = &approvedBy
		}
	}

	updateCtx, cancel := o.storeCtx(ctx)
	err = o.Store.UpdateStatus(updateCtx, id, status, newPayment, approvedAt, approver)
	cancel()
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	reg.Status = status
	reg.PaymentStatus = newPayment
	if approvedAt != nil && reg.ApprovedAt == nil {
		reg.ApprovedAt = approvedAt
	}

	return reg, nil
}

// ApplyPaymentOutcome moves payment status from pending to completed or
// failed, used by the payment callback consumer.
func (o *Orchestrator) ApplyPaymentOutcome(ctx context.Context, reg *model.Registration, succeeded bool) error {
	target := model.PaymentCompleted
	if !succeeded {
		target = model.PaymentFailed
	}

	if !CanTransitionPayment(reg.PaymentStatus, target) {
		return &errs.InvalidTransitionError{From: string(reg.PaymentStatus), To: string(target)}
	}

	updateCtx, cancel := o.storeCtx(ctx)
	defer cancel()

	return o.Store.UpdateStatus(updateCtx, reg.ID, reg.Status, target, nil, nil)
}

package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"event-registration/common/errs"
	"event-registration/model"

	"github.com/stretchr/testify/suite"
)

type fakeForms struct {
	formConfig  *model.FormConfig
	ticketTypes []model.TicketType
	err         error
}

func (f *fakeForms) GetActiveByEventID(_ context.Context, _ string) (*model.FormConfig, error) {
	return f.formConfig, f.err
}

func (f *fakeForms) ListTicketTypes(_ context.Context, _ string) ([]model.TicketType, error) {
	return f.ticketTypes, f.err
}

// fakeInventory mimics the store's conditional decrement: the availability
// check and the decrement happen atomically under one lock.
type fakeInventory struct {
	mu        sync.Mutex
	available map[string]int32
	max       map[string]int32

	reserveCalls []string
	releaseCalls []string

	// releaseCtxErrs records ctx.Err() at each Release call, to assert
	// rollback survives caller cancellation.
	releaseCtxErrs []error
}

func (f *fakeInventory) Reserve(_ context.Context, ticketTypeID string, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reserveCalls = append(f.reserveCalls, ticketTypeID)

	available, ok := f.available[ticketTypeID]
	if !ok {
		return &errs.NotFoundError{Entity: "ticket_type", ID: ticketTypeID}
	}
	if available < quantity {
		return &errs.InsufficientInventoryError{TicketTypeID: ticketTypeID}
	}

	f.available[ticketTypeID] = available - quantity
	return nil
}

func (f *fakeInventory) Release(ctx context.Context, ticketTypeID string, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseCalls = append(f.releaseCalls, ticketTypeID)
	f.releaseCtxErrs = append(f.releaseCtxErrs, ctx.Err())

	restored := f.available[ticketTypeID] + quantity
	if max, ok := f.max[ticketTypeID]; ok && restored > max {
		restored = max
	}
	f.available[ticketTypeID] = restored
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	regs    map[string]*model.Registration
	taken   map[string]bool
	created []*model.Registration

	createErr error
	onCreate  func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{regs: make(map[string]*model.Registration), taken: make(map[string]bool)}
}

func (f *fakeStore) Create(_ context.Context, reg *model.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return f.createErr
	}

	cp := *reg
	f.regs[reg.ID] = &cp
	f.created = append(f.created, &cp)
	f.taken[reg.ConfirmationCode] = true
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[id]
	if !ok {
		return nil, &errs.NotFoundError{Entity: "registration", ID: id}
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeStore) ConfirmationCodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taken[code], nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status model.RegistrationStatus, paymentStatus model.PaymentStatus, approvedAt *time.Time, approvedBy *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[id]
	if !ok {
		return &errs.NotFoundError{Entity: "registration", ID: id}
	}

	reg.Status = status
	reg.PaymentStatus = paymentStatus
	if approvedAt != nil && reg.ApprovedAt == nil {
		reg.ApprovedAt = approvedAt
	}
	if approvedBy != nil {
		reg.ApprovedBy = *approvedBy
	}
	return nil
}

type OrchestratorTestSuite struct {
	suite.Suite

	forms     *fakeForms
	inventory *fakeInventory
	store     *fakeStore
	svc       *Orchestrator

	now time.Time
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.forms = &fakeForms{
		formConfig: &model.FormConfig{
			ID:                     "form-1",
			EventID:                "event-1",
			Title:                  "Conference Registration",
			AllowGroupRegistration: true,
			MaxGroupSize:           3,
			IsActive:               true,
		},
		ticketTypes: []model.TicketType{
			{ID: "tt-regular", EventID: "event-1", Name: "Regular", Price: 50_000, MaxQuantity: 100, AvailableQuantity: 10, IsActive: true},
			{ID: "tt-vip", EventID: "event-1", Name: "VIP", Price: 150_000, MaxQuantity: 20, AvailableQuantity: 5, IsActive: true},
			{ID: "tt-free", EventID: "event-1", Name: "Community", Price: 0, MaxQuantity: 50, AvailableQuantity: 50, IsActive: true},
		},
	}
	s.inventory = &fakeInventory{
		available: map[string]int32{"tt-regular": 10, "tt-vip": 5, "tt-free": 50},
		max:       map[string]int32{"tt-regular": 100, "tt-vip": 20, "tt-free": 50},
	}
	s.store = newFakeStore()
	s.svc = &Orchestrator{
		Forms:     s.forms,
		Inventory: s.inventory,
		Store:     s.store,
		Codes:     &CodeGenerator{},
		TimeNow:   func() time.Time { return s.now },
	}
}

func (s *OrchestratorTestSuite) request(selections ...model.TicketSelectionPayload) model.SubmitRegistrationRequest {
	return model.SubmitRegistrationRequest{
		PrimaryParticipant: model.ParticipantPayload{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
		},
		TicketSelections: selections,
	}
}

func (s *OrchestratorTestSuite) TestSubmitSuccess() {
	req := s.request(
		model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 2},
		model.TicketSelectionPayload{TicketTypeID: "tt-vip", Quantity: 1},
	)

	result, err := s.svc.Submit(context.Background(), "event-1", req)

	s.Require().NoError(err)
	s.Equal(int64(250_000), result.TotalAmount)
	s.Equal(model.StatusConfirmed, result.Status)
	s.Equal(model.PaymentPending, result.PaymentStatus)
	s.Len(result.ConfirmationCode, 8)
	s.Equal([]string{"tt-regular", "tt-vip"}, result.TicketTypeIDs)

	s.Equal(int32(8), s.inventory.available["tt-regular"])
	s.Equal(int32(4), s.inventory.available["tt-vip"])
	s.Empty(s.inventory.releaseCalls)

	s.Require().Len(s.store.created, 1)
	reg := s.store.created[0]
	s.Equal("event-1", reg.EventID)
	s.Equal("form-1", reg.FormConfigID)
	s.Equal(s.now, reg.RegistrationDate)
	s.Require().Len(reg.TicketSelections, 2)
	s.Equal(int64(50_000), reg.TicketSelections[0].UnitPrice)
	s.Equal(int64(150_000), reg.TicketSelections[1].UnitPrice)
}

func (s *OrchestratorTestSuite) TestSubmitDuplicateSelectionsAggregated() {
	req := s.request(
		model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1},
		model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 2},
	)

	result, err := s.svc.Submit(context.Background(), "event-1", req)

	s.Require().NoError(err)
	s.Equal(int64(150_000), result.TotalAmount)
	// one Reserve call for the aggregated quantity, not one per selection
	s.Equal([]string{"tt-regular"}, s.inventory.reserveCalls)
	s.Equal(int32(7), s.inventory.available["tt-regular"])
}

func (s *OrchestratorTestSuite) TestSubmitFreeTicketCompletesPayment() {
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-free", Quantity: 1})

	result, err := s.svc.Submit(context.Background(), "event-1", req)

	s.Require().NoError(err)
	s.Equal(int64(0), result.TotalAmount)
	s.Equal(model.PaymentCompleted, result.PaymentStatus)
}

func (s *OrchestratorTestSuite) TestSubmitApprovalRequiredPending() {
	s.forms.formConfig.RequiresApproval = true
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})

	result, err := s.svc.Submit(context.Background(), "event-1", req)

	s.Require().NoError(err)
	s.Equal(model.StatusPending, result.Status)
	// approval does not delay the capacity commitment
	s.Equal(int32(9), s.inventory.available["tt-regular"])
}

func (s *OrchestratorTestSuite) TestSubmitNoActiveForm() {
	s.forms.formConfig = nil
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var formErr *errs.FormNotActiveError
	s.Require().ErrorAs(err, &formErr)
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitGroupNotAllowed() {
	s.forms.formConfig.AllowGroupRegistration = false
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 2})
	req.AdditionalParticipants = []model.ParticipantPayload{
		{FirstName: "John", LastName: "Doe", Email: "john@example.com"},
	}

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var validationErr *errs.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Contains(validationErr.FieldErrors, "additional_participants")
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitGroupTooLarge() {
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 4})
	req.AdditionalParticipants = []model.ParticipantPayload{
		{FirstName: "A", LastName: "A", Email: "a@example.com"},
		{FirstName: "B", LastName: "B", Email: "b@example.com"},
		{FirstName: "C", LastName: "C", Email: "c@example.com"},
	}

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var validationErr *errs.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitCustomFieldFailure() {
	s.forms.formConfig.Fields = []model.CustomField{
		{ID: "f1", Name: "company", Label: "Company", Type: model.FieldText, Required: true},
	}
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var validationErr *errs.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Contains(validationErr.FieldErrors, "company")
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitUnknownTicketType() {
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-ghost", Quantity: 1})

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var notFound *errs.NotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal("tt-ghost", notFound.ID)
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitOffSaleTicketType() {
	past := s.now.Add(-time.Hour)
	s.forms.ticketTypes[0].SalesEndDate = &past
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var validationErr *errs.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Empty(s.inventory.reserveCalls)
}

func (s *OrchestratorTestSuite) TestSubmitInsufficientInventoryRollsBack() {
	req := s.request(
		model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 2},
		model.TicketSelectionPayload{TicketTypeID: "tt-vip", Quantity: 6}, // only 5 available
	)

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	var inventoryErr *errs.InsufficientInventoryError
	s.Require().ErrorAs(err, &inventoryErr)
	s.Equal("tt-vip", inventoryErr.TicketTypeID)

	// the granted regular reservation was compensated
	s.Equal([]string{"tt-regular"}, s.inventory.releaseCalls)
	s.Equal(int32(10), s.inventory.available["tt-regular"])
	s.Equal(int32(5), s.inventory.available["tt-vip"])
	s.Empty(s.store.created)
}

func (s *OrchestratorTestSuite) TestSubmitPersistenceFailureReleasesReverseOrder() {
	s.store.createErr = errors.New("connection reset")
	req := s.request(
		model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1},
		model.TicketSelectionPayload{TicketTypeID: "tt-vip", Quantity: 1},
	)

	_, err := s.svc.Submit(context.Background(), "event-1", req)

	s.Require().Error(err)
	s.Equal([]string{"tt-regular", "tt-vip"}, s.inventory.reserveCalls)
	s.Equal([]string{"tt-vip", "tt-regular"}, s.inventory.releaseCalls)
	s.Equal(int32(10), s.inventory.available["tt-regular"])
	s.Equal(int32(5), s.inventory.available["tt-vip"])
}

func (s *OrchestratorTestSuite) TestSubmitRollbackSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	s.store.createErr = errors.New("connection reset")
	s.store.onCreate = cancel

	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})

	_, err := s.svc.Submit(ctx, "event-1", req)

	s.Require().Error(err)
	s.Require().Len(s.inventory.releaseCtxErrs, 1)
	s.NoError(s.inventory.releaseCtxErrs[0], "release must run on a context detached from the caller")
	s.Equal(int32(10), s.inventory.available["tt-regular"])
}

func (s *OrchestratorTestSuite) TestSubmitConcurrentLastTickets() {
	s.inventory.available["tt-vip"] = 2

	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-vip", Quantity: 2})

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Submit(context.Background(), "event-1", req)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var successes, insufficient int
	for err := range errCh {
		if err == nil {
			successes++
			continue
		}
		var inventoryErr *errs.InsufficientInventoryError
		s.Require().ErrorAs(err, &inventoryErr)
		insufficient++
	}

	s.Equal(1, successes)
	s.Equal(1, insufficient)
	s.Equal(int32(0), s.inventory.available["tt-vip"])
	s.Len(s.store.created, 1)
}

func (s *OrchestratorTestSuite) submitOne() *model.Registration {
	req := s.request(model.TicketSelectionPayload{TicketTypeID: "tt-regular", Quantity: 1})
	result, err := s.svc.Submit(context.Background(), "event-1", req)
	s.Require().NoError(err)

	reg, err := s.store.Get(context.Background(), result.ID)
	s.Require().NoError(err)
	return reg
}

func (s *OrchestratorTestSuite) TestUpdateStatusConfirmStampsApproval() {
	s.forms.formConfig.RequiresApproval = true
	reg := s.submitOne()

	updated, err := s.svc.UpdateStatus(context.Background(), reg.ID, model.StatusConfirmed, "", "admin@example.com")

	s.Require().NoError(err)
	s.Equal(model.StatusConfirmed, updated.Status)
	s.Require().NotNil(updated.ApprovedAt)
	s.Equal(s.now, *updated.ApprovedAt)

	stored, err := s.store.Get(context.Background(), reg.ID)
	s.Require().NoError(err)
	s.Equal("admin@example.com", stored.ApprovedBy)
}

func (s *OrchestratorTestSuite) TestUpdateStatusInvalidTransition() {
	reg := s.submitOne() // confirmed

	_, err := s.svc.UpdateStatus(context.Background(), reg.ID, model.StatusPending, "", "")

	var transitionErr *errs.InvalidTransitionError
	s.Require().ErrorAs(err, &transitionErr)
	s.Equal("confirmed", transitionErr.From)
	s.Equal("pending", transitionErr.To)
}

func (s *OrchestratorTestSuite) TestUpdateStatusCancelKeepsInventory() {
	reg := s.submitOne()
	before := s.inventory.available["tt-regular"]

	updated, err := s.svc.UpdateStatus(context.Background(), reg.ID, model.StatusCancelled, "", "")

	s.Require().NoError(err)
	s.Equal(model.StatusCancelled, updated.Status)
	s.Equal(before, s.inventory.available["tt-regular"])
	s.Empty(s.inventory.releaseCalls)
}

func (s *OrchestratorTestSuite) TestUpdateStatusWithPaymentTransition() {
	reg := s.submitOne()

	updated, err := s.svc.UpdateStatus(context.Background(), reg.ID, model.StatusCancelled, model.PaymentFailed, "")

	s.Require().NoError(err)
	s.Equal(model.PaymentFailed, updated.PaymentStatus)
}

func (s *OrchestratorTestSuite) TestUpdateStatusInvalidPaymentTransition() {
	reg := s.submitOne() // payment pending

	_, err := s.svc.UpdateStatus(context.Background(), reg.ID, model.StatusCancelled, model.PaymentRefunded, "")

	var transitionErr *errs.InvalidTransitionError
	s.Require().ErrorAs(err, &transitionErr)
}

func (s *OrchestratorTestSuite) TestUpdateStatusNotFound() {
	_, err := s.svc.UpdateStatus(context.Background(), "missing", model.StatusCancelled, "", "")

	var notFound *errs.NotFoundError
	s.Require().ErrorAs(err, &notFound)
}

func (s *OrchestratorTestSuite) TestApplyPaymentOutcome() {
	reg := s.submitOne()

	err := s.svc.ApplyPaymentOutcome(context.Background(), reg, true)

	s.Require().NoError(err)
	stored, err := s.store.Get(context.Background(), reg.ID)
	s.Require().NoError(err)
	s.Equal(model.PaymentCompleted, stored.PaymentStatus)
}

func (s *OrchestratorTestSuite) TestApplyPaymentOutcomeAlreadySettled() {
	reg := s.submitOne()
	s.Require().NoError(s.svc.ApplyPaymentOutcome(context.Background(), reg, false))

	stored, err := s.store.Get(context.Background(), reg.ID)
	s.Require().NoError(err)

	err = s.svc.ApplyPaymentOutcome(context.Background(), stored, true)

	var transitionErr *errs.InvalidTransitionError
	s.Require().ErrorAs(err, &transitionErr)
}

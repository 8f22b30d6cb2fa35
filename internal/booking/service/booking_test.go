package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingerrors "fitbook/internal/booking/errors"
	"fitbook/internal/booking/repository"
	"fitbook/internal/booking/validator"
	entitlement "fitbook/internal/entitlement/service"
	"fitbook/internal/notify"
	"fitbook/pkg/config"
	mongotx "fitbook/pkg/db/mongo"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/logger"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repositories and collaborators for testing
type mockSessionRepository struct {
	createFunc           func(ctx context.Context, session *model.Session) error
	createManyFunc       func(ctx context.Context, sessions []*model.Session) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Session, error)
	deleteFunc           func(ctx context.Context, id string) error
	deleteByScheduleFunc func(ctx context.Context, scheduleID string) (int64, error)
	findOverlappingFunc  func(ctx context.Context, trainerID string, start, end time.Time, excludeID string) ([]*model.Session, error)
	countPackFunc        func(ctx context.Context, packID string) (int64, error)
	updateStatusFunc     func(ctx context.Context, id string, status string, reason string) error
	rescheduleFunc       func(ctx context.Context, id string, start time.Time, notes *string) error
	searchFunc           func(ctx context.Context, filter repository.SessionFilter, limit int, offset int64) ([]*model.Session, error)
	countBySearchFunc    func(ctx context.Context, filter repository.SessionFilter) (int64, error)
}

func (m *mockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, session)
	}
	session.ID = "665f1f77bcf86cd799439099"
	return nil
}

func (m *mockSessionRepository) CreateMany(ctx context.Context, sessions []*model.Session) error {
	if m.createManyFunc != nil {
		return m.createManyFunc(ctx, sessions)
	}
	return nil
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionRepository) DeleteByRecurringSchedule(ctx context.Context, scheduleID string) (int64, error) {
	if m.deleteByScheduleFunc != nil {
		return m.deleteByScheduleFunc(ctx, scheduleID)
	}
	return 0, nil
}

func (m *mockSessionRepository) FindOverlapping(ctx context.Context, trainerID string, start, end time.Time, excludeID string) ([]*model.Session, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, trainerID, start, end, excludeID)
	}
	return nil, nil
}

func (m *mockSessionRepository) CountPackConsumption(ctx context.Context, packID string) (int64, error) {
	if m.countPackFunc != nil {
		return m.countPackFunc(ctx, packID)
	}
	return 0, nil
}

func (m *mockSessionRepository) UpdateStatus(ctx context.Context, id string, status string, reason string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, reason)
	}
	return nil
}

func (m *mockSessionRepository) Reschedule(ctx context.Context, id string, start time.Time, notes *string) error {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(ctx, id, start, notes)
	}
	return nil
}

func (m *mockSessionRepository) Search(ctx context.Context, filter repository.SessionFilter, limit int, offset int64) ([]*model.Session, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockSessionRepository) CountBySearch(ctx context.Context, filter repository.SessionFilter) (int64, error) {
	if m.countBySearchFunc != nil {
		return m.countBySearchFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockSessionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// memLockRepository emulates the unique-_id insert semantics of the Mongo
// lock collection so concurrency tests exercise the real duplicate-key path.
type memLockRepository struct {
	mu    sync.Mutex
	locks map[string]bool
}

func newMemLockRepository() *memLockRepository {
	return &memLockRepository{locks: make(map[string]bool)}
}

func (m *memLockRepository) Create(ctx context.Context, lock *model.SessionLock) (*model.SessionLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[lock.ID] {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	m.locks[lock.ID] = true
	return lock, nil
}

func (m *memLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockID)
	return nil
}

type mockPartyRepository struct {
	findTrainerFunc func(ctx context.Context, id string) (*model.Trainer, error)
	findClientFunc  func(ctx context.Context, id string) (*model.Client, error)
}

func (m *mockPartyRepository) FindTrainer(ctx context.Context, id string) (*model.Trainer, error) {
	if m.findTrainerFunc != nil {
		return m.findTrainerFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockPartyRepository) FindClient(ctx context.Context, id string) (*model.Client, error) {
	if m.findClientFunc != nil {
		return m.findClientFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

type mockEntitlementService struct {
	validateFunc func(ctx context.Context, req entitlement.Request) (*entitlement.Entitlement, error)
	consumeFunc  func(ctx context.Context, ent *entitlement.Entitlement, quantity int) error
	reverseFunc  func(ctx context.Context, session *model.Session) error
}

func (m *mockEntitlementService) Validate(ctx context.Context, req entitlement.Request) (*entitlement.Entitlement, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, req)
	}
	return &entitlement.Entitlement{Method: req.Method, PackID: req.PackID, SubscriptionID: req.SubscriptionID}, nil
}

func (m *mockEntitlementService) Consume(ctx context.Context, ent *entitlement.Entitlement, quantity int) error {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, ent, quantity)
	}
	return nil
}

func (m *mockEntitlementService) Reverse(ctx context.Context, session *model.Session) error {
	if m.reverseFunc != nil {
		return m.reverseFunc(ctx, session)
	}
	return nil
}

type mockConflictChecker struct {
	checkFunc func(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error)
}

func (m *mockConflictChecker) Check(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error) {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, trainerID, start, durationMin, excludeID)
	}
	return &CheckResult{Status: CheckOK}, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Notification
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, n notify.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, n)
}

func (d *recordingDispatcher) Close() {}

func (d *recordingDispatcher) byType(eventType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load test timezone: %v", err)
	}

	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		Location:         loc,
		BusinessTimezone: "America/New_York",
		SessionDuration:  60 * time.Minute,
		LateCancelWindow: 24 * time.Hour,
		SlotLockTTL:      10 * time.Second,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

const (
	testTrainerID = "665f1f77bcf86cd799439001"
	testClientID  = "665f1f77bcf86cd799439002"
	testPackID    = "665f1f77bcf86cd799439003"
	testSessionID = "665f1f77bcf86cd799439099"
)

type serviceDeps struct {
	repo        *mockSessionRepository
	locks       *memLockRepository
	parties     *mockPartyRepository
	entitlement *mockEntitlementService
	conflicts   *mockConflictChecker
	dispatcher  *recordingDispatcher
	cfg         *config.Config
}

func newTestService(t *testing.T, deps serviceDeps) (BookingService, serviceDeps) {
	t.Helper()

	if deps.repo == nil {
		deps.repo = &mockSessionRepository{}
	}
	if deps.locks == nil {
		deps.locks = newMemLockRepository()
	}
	if deps.parties == nil {
		deps.parties = &mockPartyRepository{}
	}
	if deps.entitlement == nil {
		deps.entitlement = &mockEntitlementService{}
	}
	if deps.conflicts == nil {
		deps.conflicts = &mockConflictChecker{}
	}
	if deps.dispatcher == nil {
		deps.dispatcher = &recordingDispatcher{}
	}
	if deps.cfg == nil {
		deps.cfg = testConfig(t)
	}

	svc := NewBookingService(
		deps.repo,
		deps.locks,
		deps.parties,
		validator.NewSessionValidator(deps.cfg.Log),
		deps.conflicts,
		deps.entitlement,
		deps.dispatcher,
		deps.cfg,
	)
	return svc, deps
}

func packBookingRequest(start time.Time) *BookingRequest {
	return &BookingRequest{
		TrainerID:     testTrainerID,
		ClientID:      testClientID,
		ServiceTypeID: "strength-training",
		StartTime:     start,
		Method:        model.MethodPack,
		PackID:        testPackID,
	}
}

func TestBook_PackHappyPath(t *testing.T) {
	var consumed *entitlement.Entitlement
	svc, deps := newTestService(t, serviceDeps{
		entitlement: &mockEntitlementService{
			consumeFunc: func(ctx context.Context, ent *entitlement.Entitlement, quantity int) error {
				consumed = ent
				return nil
			},
		},
	})

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	result, err := svc.Book(context.Background(), packBookingRequest(start))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.SessionID != testSessionID {
		t.Errorf("expected session id %s, got %s", testSessionID, result.SessionID)
	}
	if result.Status != model.SessionScheduled {
		t.Errorf("expected scheduled, got %s", result.Status)
	}
	if consumed == nil || consumed.PackID != testPackID {
		t.Errorf("expected pack %s to be consumed, got %+v", testPackID, consumed)
	}
	if deps.dispatcher.byType(notify.EventSessionBooked) != 2 {
		t.Errorf("expected booked notification to trainer and client, got %d", deps.dispatcher.byType(notify.EventSessionBooked))
	}
}

func TestBook_OneOffIsPendingApproval(t *testing.T) {
	svc, _ := newTestService(t, serviceDeps{})

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	result, err := svc.Book(context.Background(), &BookingRequest{
		TrainerID:     testTrainerID,
		ClientID:      testClientID,
		ServiceTypeID: "strength-training",
		StartTime:     start,
		Method:        model.MethodOneOff,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != model.SessionPendingApproval {
		t.Errorf("expected pending_approval, got %s", result.Status)
	}
}

func TestBook_ConflictCreatesNothing(t *testing.T) {
	created := false
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			createFunc: func(ctx context.Context, session *model.Session) error {
				created = true
				return nil
			},
		},
		conflicts: &mockConflictChecker{
			checkFunc: func(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error) {
				return &CheckResult{Status: CheckConflict, Message: "Timeslot already booked"}, nil
			},
		},
	})

	start := time.Now().Add(72 * time.Hour)
	_, err := svc.Book(context.Background(), packBookingRequest(start))
	if err == nil {
		t.Fatal("expected conflict error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("expected conflict code, got %s", apperrors.AsAppError(err).Code)
	}
	if created {
		t.Error("session must not be created on conflict")
	}
}

func TestBook_LostCASRaceRollsBackSession(t *testing.T) {
	var deleted string
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			deleteFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		},
		entitlement: &mockEntitlementService{
			consumeFunc: func(ctx context.Context, ent *entitlement.Entitlement, quantity int) error {
				return apperrors.Concurrency("Pack was modified by a concurrent booking, retry")
			},
		},
	})

	start := time.Now().Add(72 * time.Hour)
	_, err := svc.Book(context.Background(), packBookingRequest(start))
	if err == nil {
		t.Fatal("expected concurrency error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConcurrency {
		t.Errorf("expected concurrency code, got %s", apperrors.AsAppError(err).Code)
	}
	if deleted != testSessionID {
		t.Errorf("expected inserted session %s to be rolled back, got %q", testSessionID, deleted)
	}
}

func TestBook_ConcurrentSameSlotOneWinner(t *testing.T) {
	var mu sync.Mutex
	var store []*model.Session

	repo := &mockSessionRepository{
		createFunc: func(ctx context.Context, session *model.Session) error {
			mu.Lock()
			defer mu.Unlock()
			session.ID = testSessionID
			store = append(store, session)
			return nil
		},
	}
	conflicts := &mockConflictChecker{
		checkFunc: func(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error) {
			mu.Lock()
			defer mu.Unlock()
			end := start.Add(time.Duration(durationMin) * time.Minute)
			for _, s := range store {
				if s.StartTime.Before(end) && s.EndTime().After(start) {
					return &CheckResult{Status: CheckConflict, Message: "Timeslot already booked"}, nil
				}
			}
			return &CheckResult{Status: CheckOK}, nil
		},
	}
	svc, _ := newTestService(t, serviceDeps{repo: repo, conflicts: conflicts})

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	const attempts = 5

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Book(context.Background(), packBookingRequest(start))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		if status := apperrors.AsAppError(err).HTTPStatus; status != 409 {
			t.Errorf("losing request should get 409, got %d (%v)", status, err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one winning booking, got %d", successes)
	}
	if len(store) != 1 {
		t.Errorf("expected exactly one stored session, got %d", len(store))
	}
}

func TestBook_PackCapacityExhaustedOnSixth(t *testing.T) {
	// Real entitlement service over an in-memory pack: capacity 5, live
	// counts derived from the sessions actually stored.
	var mu sync.Mutex
	var store []*model.Session

	repo := &mockSessionRepository{
		createFunc: func(ctx context.Context, session *model.Session) error {
			mu.Lock()
			defer mu.Unlock()
			session.ID = testSessionID
			store = append(store, session)
			return nil
		},
		countPackFunc: func(ctx context.Context, packID string) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			return int64(len(store)), nil
		},
	}

	remaining := 5
	svc, _ := newTestService(t, serviceDeps{
		repo: repo,
		entitlement: &mockEntitlementService{
			validateFunc: func(ctx context.Context, req entitlement.Request) (*entitlement.Entitlement, error) {
				consumed, _ := repo.CountPackConsumption(ctx, req.PackID)
				if consumed+int64(req.Quantity) > 5 {
					return nil, apperrors.Entitlement("No sessions remaining in pack")
				}
				return &entitlement.Entitlement{Method: model.MethodPack, PackID: req.PackID}, nil
			},
			consumeFunc: func(ctx context.Context, ent *entitlement.Entitlement, quantity int) error {
				mu.Lock()
				defer mu.Unlock()
				remaining -= quantity
				return nil
			},
		},
	})

	base := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Hour)
	for i := 0; i < 5; i++ {
		if _, err := svc.Book(context.Background(), packBookingRequest(base.Add(time.Duration(i)*2*time.Hour))); err != nil {
			t.Fatalf("booking %d should succeed, got %v", i+1, err)
		}
	}

	_, err := svc.Book(context.Background(), packBookingRequest(base.Add(12*time.Hour)))
	if err == nil {
		t.Fatal("sixth booking should fail, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeEntitlement {
		t.Errorf("expected entitlement error, got %s", apperrors.AsAppError(err).Code)
	}
	if remaining != 0 {
		t.Errorf("expected counter at 0, got %d", remaining)
	}
}

func scheduledSession(start time.Time) *model.Session {
	return &model.Session{
		ID:            testSessionID,
		TrainerID:     testTrainerID,
		ClientID:      testClientID,
		ServiceTypeID: "strength-training",
		StartTime:     start,
		DurationMin:   60,
		Status:        model.SessionScheduled,
		BookingMethod: model.MethodPack,
		SourcePackID:  testPackID,
	}
}

func TestCancel_LateDefaultsToPenalty(t *testing.T) {
	reversed := false
	var gotReason string
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(10 * time.Hour)), nil
			},
			updateStatusFunc: func(ctx context.Context, id string, status string, reason string) error {
				gotReason = reason
				return nil
			},
		},
		entitlement: &mockEntitlementService{
			reverseFunc: func(ctx context.Context, session *model.Session) error {
				reversed = true
				return nil
			},
		},
	})

	session, err := svc.Cancel(context.Background(), testSessionID, &CancelRequest{
		ActorID:   testClientID,
		ActorRole: RoleClient,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotReason != model.CancelPenalty {
		t.Errorf("expected penalty reason, got %s", gotReason)
	}
	if reversed {
		t.Error("penalized cancellation must not reverse consumption")
	}
	if session.Status != model.SessionCancelled {
		t.Errorf("expected cancelled, got %s", session.Status)
	}
}

func TestCancel_ClientCannotWaiveLatePenalty(t *testing.T) {
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(10 * time.Hour)), nil
			},
		},
	})

	waive := false
	_, err := svc.Cancel(context.Background(), testSessionID, &CancelRequest{
		ActorID:   testClientID,
		ActorRole: RoleClient,
		Penalize:  &waive,
	})
	if err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestCancel_TrainerWaivesLatePenalty(t *testing.T) {
	reversed := false
	svc, deps := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(10 * time.Hour)), nil
			},
		},
		entitlement: &mockEntitlementService{
			reverseFunc: func(ctx context.Context, session *model.Session) error {
				reversed = true
				return nil
			},
		},
	})

	waive := false
	session, err := svc.Cancel(context.Background(), testSessionID, &CancelRequest{
		ActorID:   testTrainerID,
		ActorRole: RoleTrainer,
		Penalize:  &waive,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reversed {
		t.Error("waived penalty must reverse consumption")
	}
	if session.CancellationReason != model.CancelNoPenalty {
		t.Errorf("expected no_penalty, got %s", session.CancellationReason)
	}
	if deps.dispatcher.byType(notify.EventSessionCancelled) != 2 {
		t.Errorf("expected cancellation notices to both parties, got %d", deps.dispatcher.byType(notify.EventSessionCancelled))
	}
}

func TestCancel_EarlyReversesConsumption(t *testing.T) {
	var reversedSession *model.Session
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(72 * time.Hour)), nil
			},
		},
		entitlement: &mockEntitlementService{
			reverseFunc: func(ctx context.Context, session *model.Session) error {
				reversedSession = session
				return nil
			},
		},
	})

	session, err := svc.Cancel(context.Background(), testSessionID, &CancelRequest{
		ActorID:   testClientID,
		ActorRole: RoleClient,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reversedSession == nil || reversedSession.SourcePackID != testPackID {
		t.Errorf("expected pack consumption to be reversed, got %+v", reversedSession)
	}
	if session.CancellationReason != model.CancelNoPenalty {
		t.Errorf("expected no_penalty, got %s", session.CancellationReason)
	}
}

func TestCancel_WrongOwnerForbidden(t *testing.T) {
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(72 * time.Hour)), nil
			},
		},
	})

	_, err := svc.Cancel(context.Background(), testSessionID, &CancelRequest{
		ActorID:   "665f1f77bcf86cd799439777",
		ActorRole: RoleClient,
	})
	if err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestEdit_RescheduleLockedInside24Hours(t *testing.T) {
	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(10 * time.Hour)), nil
			},
		},
	})

	newStart := time.Now().Add(96 * time.Hour)
	_, err := svc.Edit(context.Background(), testSessionID, &EditRequest{
		ActorID:   testClientID,
		ActorRole: RoleClient,
		StartTime: &newStart,
	})
	if err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestEdit_RescheduleExcludesSelfFromConflictCheck(t *testing.T) {
	var gotExclude string
	rescheduled := false
	svc, deps := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return scheduledSession(time.Now().Add(72 * time.Hour)), nil
			},
			rescheduleFunc: func(ctx context.Context, id string, start time.Time, notes *string) error {
				rescheduled = true
				return nil
			},
		},
		conflicts: &mockConflictChecker{
			checkFunc: func(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error) {
				gotExclude = excludeID
				return &CheckResult{Status: CheckOK}, nil
			},
		},
	})

	newStart := time.Now().Add(96 * time.Hour)
	_, err := svc.Edit(context.Background(), testSessionID, &EditRequest{
		ActorID:   testTrainerID,
		ActorRole: RoleTrainer,
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotExclude != testSessionID {
		t.Errorf("conflict check must exclude the edited session, got %q", gotExclude)
	}
	if !rescheduled {
		t.Error("expected reschedule to be persisted")
	}
	if deps.dispatcher.byType(notify.EventSessionRescheduled) != 2 {
		t.Errorf("expected reschedule notices to both parties, got %d", deps.dispatcher.byType(notify.EventSessionRescheduled))
	}
}

func TestApprove_TrainerMovesPendingToScheduled(t *testing.T) {
	var gotStatus string
	pending := scheduledSession(time.Now().Add(72 * time.Hour))
	pending.Status = model.SessionPendingApproval
	pending.BookingMethod = model.MethodOneOff
	pending.SourcePackID = ""

	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return pending, nil
			},
			updateStatusFunc: func(ctx context.Context, id string, status string, reason string) error {
				gotStatus = status
				return nil
			},
		},
	})

	if err := svc.Approve(context.Background(), testSessionID, testTrainerID, RoleTrainer); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotStatus != model.SessionScheduled {
		t.Errorf("expected scheduled, got %s", gotStatus)
	}
}

func TestApprove_ClientForbidden(t *testing.T) {
	pending := scheduledSession(time.Now().Add(72 * time.Hour))
	pending.Status = model.SessionPendingApproval

	svc, _ := newTestService(t, serviceDeps{
		repo: &mockSessionRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
				return pending, nil
			},
		},
	})

	err := svc.Approve(context.Background(), testSessionID, testClientID, RoleClient)
	if err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden, got %s", apperrors.AsAppError(err).Code)
	}
}

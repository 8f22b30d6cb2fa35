package service

import (
	"context"
	"testing"
	"time"

	"fitbook/pkg/config"
	"fitbook/pkg/logger"
	"fitbook/pkg/model"
)

// Mock repositories for testing
type mockTemplateRepository struct {
	createFunc               func(ctx context.Context, template *model.AvailabilityTemplate) error
	findByIDFunc             func(ctx context.Context, id string) (*model.AvailabilityTemplate, error)
	findByTrainerFunc        func(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error)
	findByTrainerWeekdayFunc func(ctx context.Context, trainerID string, weekday model.Weekday) ([]*model.AvailabilityTemplate, error)
	deleteFunc               func(ctx context.Context, id string) error
}

func (m *mockTemplateRepository) Create(ctx context.Context, template *model.AvailabilityTemplate) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, template)
	}
	return nil
}

func (m *mockTemplateRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityTemplate, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTemplateRepository) FindByTrainer(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error) {
	if m.findByTrainerFunc != nil {
		return m.findByTrainerFunc(ctx, trainerID)
	}
	return nil, nil
}

func (m *mockTemplateRepository) FindByTrainerAndWeekday(ctx context.Context, trainerID string, weekday model.Weekday) ([]*model.AvailabilityTemplate, error) {
	if m.findByTrainerWeekdayFunc != nil {
		return m.findByTrainerWeekdayFunc(ctx, trainerID, weekday)
	}
	return nil, nil
}

func (m *mockTemplateRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockExceptionRepository struct {
	createFunc        func(ctx context.Context, exception *model.AvailabilityException) error
	findByIDFunc      func(ctx context.Context, id string) (*model.AvailabilityException, error)
	findByDateFunc    func(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error)
	findByTrainerFunc func(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error)
	deleteFunc        func(ctx context.Context, id string) error
}

func (m *mockExceptionRepository) Create(ctx context.Context, exception *model.AvailabilityException) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, exception)
	}
	return nil
}

func (m *mockExceptionRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityException, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExceptionRepository) FindByTrainerAndDate(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
	if m.findByDateFunc != nil {
		return m.findByDateFunc(ctx, trainerID, date)
	}
	return nil, nil
}

func (m *mockExceptionRepository) FindByTrainer(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error) {
	if m.findByTrainerFunc != nil {
		return m.findByTrainerFunc(ctx, trainerID, limit, offset)
	}
	return nil, nil
}

func (m *mockExceptionRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
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
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

func newTestService(templates *mockTemplateRepository, exceptions *mockExceptionRepository, cfg *config.Config) *availabilityService {
	return &availabilityService{
		templates:  templates,
		exceptions: exceptions,
		cfg:        cfg,
	}
}

// 2026-03-02 is a Monday.
const testMonday = "2026-03-02"

func mondayTemplates(windows ...[2]string) *mockTemplateRepository {
	return &mockTemplateRepository{
		findByTrainerWeekdayFunc: func(ctx context.Context, trainerID string, weekday model.Weekday) ([]*model.AvailabilityTemplate, error) {
			if weekday != model.Monday {
				return nil, nil
			}
			var out []*model.AvailabilityTemplate
			for i, w := range windows {
				out = append(out, &model.AvailabilityTemplate{
					ID:        "t" + string(rune('0'+i)),
					TrainerID: trainerID,
					Weekday:   model.Monday,
					StartTime: w[0],
					EndTime:   w[1],
				})
			}
			return out, nil
		},
	}
}

func TestResolveDay_PartialBlockSplitsTemplate(t *testing.T) {
	templates := mondayTemplates([2]string{"09:00", "12:00"})
	exceptions := &mockExceptionRepository{
		findByDateFunc: func(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
			return []*model.AvailabilityException{{
				TrainerID: trainerID,
				Date:      date,
				Type:      model.ExceptionPartial,
				StartTime: "10:00",
				EndTime:   "11:00",
			}}, nil
		},
	}

	svc := newTestService(templates, exceptions, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("ResolveDay() error: %v", err)
	}

	want := []Interval{{540, 600}, {660, 720}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ResolveDay() = %v, want [09:00,10:00) [11:00,12:00)", got)
	}
}

func TestResolveDay_FullDayBlockWinsOverEverything(t *testing.T) {
	templates := mondayTemplates([2]string{"09:00", "12:00"}, [2]string{"14:00", "18:00"})
	exceptions := &mockExceptionRepository{
		findByDateFunc: func(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
			return []*model.AvailabilityException{
				{Type: model.ExceptionExtraSlot, StartTime: "06:00", EndTime: "07:00"},
				{Type: model.ExceptionFullDay},
			}, nil
		},
	}

	svc := newTestService(templates, exceptions, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("ResolveDay() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("full-day block must empty the day, got %v", got)
	}
}

func TestResolveDay_ExtraSlotMergesWithTemplates(t *testing.T) {
	templates := mondayTemplates([2]string{"09:00", "12:00"})
	exceptions := &mockExceptionRepository{
		findByDateFunc: func(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
			return []*model.AvailabilityException{
				{Type: model.ExceptionExtraSlot, StartTime: "11:00", EndTime: "14:00"},
			}, nil
		},
	}

	svc := newTestService(templates, exceptions, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("ResolveDay() error: %v", err)
	}

	if len(got) != 1 || got[0] != (Interval{540, 840}) {
		t.Errorf("ResolveDay() = %v, want single [09:00,14:00)", got)
	}
}

func TestResolveDay_NoTemplatesMeansEmptyDay(t *testing.T) {
	svc := newTestService(&mockTemplateRepository{}, &mockExceptionRepository{}, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("empty availability must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ResolveDay() = %v, want empty", got)
	}
}

func TestResolveDay_OverlappingTemplatesMerged(t *testing.T) {
	templates := mondayTemplates([2]string{"09:00", "11:00"}, [2]string{"10:00", "12:00"}, [2]string{"12:00", "13:00"})

	svc := newTestService(templates, &mockExceptionRepository{}, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("ResolveDay() error: %v", err)
	}
	if len(got) != 1 || got[0] != (Interval{540, 780}) {
		t.Errorf("ResolveDay() = %v, want single [09:00,13:00)", got)
	}
}

func TestResolveDay_ExceptionWithoutTimesBlocksFullDay(t *testing.T) {
	templates := mondayTemplates([2]string{"09:00", "12:00"})
	exceptions := &mockExceptionRepository{
		findByDateFunc: func(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
			// partial block with missing times defaults to 00:00-23:59
			return []*model.AvailabilityException{
				{Type: model.ExceptionPartial},
			}, nil
		},
	}

	svc := newTestService(templates, exceptions, testConfig(t))

	got, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", testMonday)
	if err != nil {
		t.Fatalf("ResolveDay() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("defaulted full-day window should subtract everything, got %v", got)
	}
}

func TestResolveDay_RejectsBadDate(t *testing.T) {
	svc := newTestService(&mockTemplateRepository{}, &mockExceptionRepository{}, testConfig(t))

	if _, err := svc.ResolveDay(context.Background(), "64b000000000000000000001", "03/02/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

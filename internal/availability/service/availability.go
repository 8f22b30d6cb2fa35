package service

import (
	"context"
	"errors"
	"time"

	availerrors "fitbook/internal/availability/errors"
	"fitbook/internal/availability/repository"
	"fitbook/internal/availability/validator"
	"fitbook/pkg/config"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
)

const DateLayout = "2006-01-02"

// ClockInterval is the wire form of a resolved interval.
type ClockInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DayAvailability struct {
	TrainerID string          `json:"trainer_id"`
	Date      string          `json:"date"`
	Intervals []ClockInterval `json:"intervals"`
}

type AvailabilityService interface {
	ResolveDay(ctx context.Context, trainerID string, date string) ([]Interval, error)
	ResolveDayClock(ctx context.Context, trainerID string, date string) (*DayAvailability, error)

	CreateTemplate(ctx context.Context, template *model.AvailabilityTemplate) error
	ListTemplates(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error

	CreateException(ctx context.Context, exception *model.AvailabilityException) error
	ListExceptions(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error)
	DeleteException(ctx context.Context, id string) error
}

type availabilityService struct {
	templates  repository.TemplateRepository
	exceptions repository.ExceptionRepository
	validator  *validator.AvailabilityValidator
	cfg        *config.Config
}

func NewAvailabilityService(
	templates repository.TemplateRepository,
	exceptions repository.ExceptionRepository,
	v *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		templates:  templates,
		exceptions: exceptions,
		validator:  v,
		cfg:        cfg,
	}
}

// ResolveDay computes the open intervals for one trainer-local calendar date.
// Templates for the date's weekday are merged, then exceptions override:
// a full-day block empties the day outright, partial blocks subtract their
// window, extra slots append and re-merge. No templates and no extra slots
// means an empty day, which is a valid result rather than an error.
func (s *availabilityService) ResolveDay(ctx context.Context, trainerID string, date string) ([]Interval, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("date must be formatted YYYY-MM-DD")
	}
	weekday := model.Weekday(day.Weekday())

	templates, err := s.templates.FindByTrainerAndWeekday(ctx, trainerID, weekday)
	if err != nil {
		return nil, apperrors.Internal("Failed to load availability templates", err)
	}

	intervals := make([]Interval, 0, len(templates))
	for _, t := range templates {
		iv, err := templateInterval(t.StartTime, t.EndTime)
		if err != nil {
			s.cfg.Log.Warn("Skipping malformed availability template",
				"template_id", t.ID,
				"error", err,
			)
			continue
		}
		intervals = append(intervals, iv)
	}
	intervals = Merge(intervals)

	exceptions, err := s.exceptions.FindByTrainerAndDate(ctx, trainerID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to load availability exceptions", err)
	}

	// A full-day block wins over everything else on the same date.
	for _, e := range exceptions {
		if e.Type == model.ExceptionFullDay {
			return nil, nil
		}
	}

	for _, e := range exceptions {
		if e.Type != model.ExceptionPartial {
			continue
		}
		start, end, err := exceptionWindow(e)
		if err != nil {
			s.cfg.Log.Warn("Skipping malformed availability exception",
				"exception_id", e.ID,
				"error", err,
			)
			continue
		}
		intervals = Subtract(intervals, start, end)
	}

	for _, e := range exceptions {
		if e.Type != model.ExceptionExtraSlot {
			continue
		}
		start, end, err := exceptionWindow(e)
		if err != nil {
			s.cfg.Log.Warn("Skipping malformed availability exception",
				"exception_id", e.ID,
				"error", err,
			)
			continue
		}
		intervals = Merge(append(intervals, Interval{Start: start, End: end}))
	}

	return intervals, nil
}

func (s *availabilityService) ResolveDayClock(ctx context.Context, trainerID string, date string) (*DayAvailability, error) {
	intervals, err := s.ResolveDay(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	clock := make([]ClockInterval, 0, len(intervals))
	for _, iv := range intervals {
		clock = append(clock, ClockInterval{
			Start: FormatClock(iv.Start),
			End:   FormatClock(iv.End),
		})
	}

	return &DayAvailability{
		TrainerID: trainerID,
		Date:      date,
		Intervals: clock,
	}, nil
}

func templateInterval(startTime, endTime string) (Interval, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, availerrors.ErrInvalidWindow
	}
	return Interval{Start: start, End: end}, nil
}

func exceptionWindow(e *model.AvailabilityException) (int, int, error) {
	startClock, endClock := e.Window()
	start, err := ParseClock(startClock)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(endClock)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, availerrors.ErrInvalidWindow
	}
	return start, end, nil
}

func (s *availabilityService) CreateTemplate(ctx context.Context, template *model.AvailabilityTemplate) error {
	if err := s.validator.ValidateTemplate(template); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	if err := s.templates.Create(ctx, template); err != nil {
		s.cfg.Log.Error("Failed to create availability template", "error", err)
		return apperrors.Internal("Failed to create availability template", err)
	}

	s.cfg.Log.Info("Availability template created",
		"id", template.ID,
		"trainer_id", template.TrainerID,
		"weekday", template.Weekday.String(),
	)
	return nil
}

func (s *availabilityService) ListTemplates(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error) {
	if trainerID == "" {
		return nil, apperrors.InvalidInput("Trainer ID cannot be empty")
	}

	templates, err := s.templates.FindByTrainer(ctx, trainerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list availability templates", err)
	}
	return templates, nil
}

func (s *availabilityService) DeleteTemplate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Template ID cannot be empty")
	}

	err := s.templates.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, availerrors.ErrTemplateNotFound) {
			return apperrors.NotFoundWithID("Availability template", id)
		}
		if errors.Is(err, availerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid template ID format")
		}
		return apperrors.Internal("Failed to delete availability template", err)
	}
	return nil
}

func (s *availabilityService) CreateException(ctx context.Context, exception *model.AvailabilityException) error {
	if err := s.validator.ValidateException(exception); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	if err := s.exceptions.Create(ctx, exception); err != nil {
		s.cfg.Log.Error("Failed to create availability exception", "error", err)
		return apperrors.Internal("Failed to create availability exception", err)
	}

	s.cfg.Log.Info("Availability exception created",
		"id", exception.ID,
		"trainer_id", exception.TrainerID,
		"date", exception.Date,
		"type", exception.Type,
	)
	return nil
}

func (s *availabilityService) ListExceptions(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error) {
	if trainerID == "" {
		return nil, apperrors.InvalidInput("Trainer ID cannot be empty")
	}

	exceptions, err := s.exceptions.FindByTrainer(ctx, trainerID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list availability exceptions", err)
	}
	return exceptions, nil
}

func (s *availabilityService) DeleteException(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Exception ID cannot be empty")
	}

	err := s.exceptions.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, availerrors.ErrExceptionNotFound) {
			return apperrors.NotFoundWithID("Availability exception", id)
		}
		if errors.Is(err, availerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid exception ID format")
		}
		return apperrors.Internal("Failed to delete availability exception", err)
	}
	return nil
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/event"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

const entityType = "schedule"

// ErrScheduleConflict is matched by errors.Is on every rejected double booking.
var ErrScheduleConflict = errors.New("schedule overlaps an existing schedule")

// ConflictError carries the schedules that blocked a write.
type ConflictError struct {
	Conflicts []model.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule overlaps %d existing schedule(s)", len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error {
	return ErrScheduleConflict
}

// DoctorLookup resolves the doctor a schedule belongs to.
type DoctorLookup interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

type ScheduleServicer interface {
	CheckConflicts(ctx context.Context, draft model.ScheduleDraft, excludeID *uuid.UUID) ([]model.Conflict, error)
	CreateSchedule(ctx context.Context, s *model.Schedule) (*model.Schedule, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, s *model.Schedule) (*model.Schedule, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) (*model.Schedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	ListSchedules(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error)
	WeeklyAvailability(ctx context.Context, doctorID uuid.UUID) ([]model.DayAvailability, error)
}

type Service struct {
	repo      repository.ScheduleRepository
	doctors   DoctorLookup
	validator validator.Validator
	auditor   *audit.Service
	events    *event.EventService
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	repo repository.ScheduleRepository,
	doctors DoctorLookup,
	v validator.Validator,
	auditor *audit.Service,
	events *event.EventService,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		doctors:   doctors,
		validator: v,
		auditor:   auditor,
		events:    events,
		metrics:   m,
		now:       time.Now,
	}
}

// CheckConflicts previews the conflicts a draft would cause. It never writes.
func (s *Service) CheckConflicts(ctx context.Context, draft model.ScheduleDraft, excludeID *uuid.UUID) ([]model.Conflict, error) {
	draft.WorkingDays = draft.WorkingDays.Normalize()
	if err := s.validate("invalid schedule draft", &draft); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByDoctor(ctx, draft.DoctorID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list schedules: %w", err))
	}

	conflicts := CheckOverlaps(draft, existing, excludeID)
	s.observeCheck("preview", conflicts)
	return Describe(draft, conflicts), nil
}

func (s *Service) CreateSchedule(ctx context.Context, sched *model.Schedule) (*model.Schedule, error) {
	prepare(sched)
	if err := s.validate("invalid schedule", sched); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetDoctor(ctx, sched.DoctorID); err != nil {
		return nil, err
	}

	err := s.repo.WithDoctorLock(ctx, sched.DoctorID, func(tx repository.ScheduleTx) error {
		if err := s.ensureNoConflicts(ctx, tx, "create", sched, nil); err != nil {
			return err
		}
		sched.ID = uuid.New()
		return tx.Create(ctx, sched)
	})
	if err != nil {
		s.observeWrite("create", err)
		return nil, s.wrap("failed to create schedule", err)
	}
	s.observeWrite("create", nil)

	s.auditor.Record(ctx, audit.ActionCreate, entityType, sched.ID, sched)
	s.publish(ctx, model.EventScheduleCreated, sched)
	return sched, nil
}

// UpdateSchedule replaces the schedule with id. The schedule never conflicts
// with its own saved version.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, sched *model.Schedule) (*model.Schedule, error) {
	prepare(sched)
	if err := s.validate("invalid schedule", sched); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetDoctor(ctx, sched.DoctorID); err != nil {
		return nil, err
	}

	err := s.repo.WithDoctorLock(ctx, sched.DoctorID, func(tx repository.ScheduleTx) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNoConflicts(ctx, tx, "update", sched, &id); err != nil {
			return err
		}
		sched.ID = id
		sched.CreatedAt = current.CreatedAt
		return tx.Update(ctx, sched)
	})
	if err != nil {
		s.observeWrite("update", err)
		return nil, s.wrap("failed to update schedule", err)
	}
	s.observeWrite("update", nil)

	s.auditor.Record(ctx, audit.ActionUpdate, entityType, sched.ID, sched)
	s.publish(ctx, model.EventScheduleUpdated, sched)
	return sched, nil
}

// SetStatus activates or deactivates a schedule. Deactivation always succeeds;
// activation is refused if the schedule would now collide with another one.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) (*model.Schedule, error) {
	if status != model.ScheduleStatusActive && status != model.ScheduleStatusInactive {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status %q", status), nil)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get schedule", err)
	}

	var changed bool
	var updated *model.Schedule
	err = s.repo.WithDoctorLock(ctx, current.DoctorID, func(tx repository.ScheduleTx) error {
		sched, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		updated = sched
		if sched.Status == status {
			return nil
		}
		sched.Status = status
		if err := s.ensureNoConflicts(ctx, tx, "activate", sched, &id); err != nil {
			return err
		}
		changed = true
		return tx.Update(ctx, sched)
	})
	if err != nil {
		s.observeWrite("status", err)
		return nil, s.wrap("failed to change schedule status", err)
	}
	if !changed {
		return updated, nil
	}
	s.observeWrite("status", nil)

	action, eventType := audit.ActionDeactivate, model.EventScheduleDeactivated
	if status == model.ScheduleStatusActive {
		action, eventType = audit.ActionActivate, model.EventScheduleActivated
	}
	s.auditor.Record(ctx, action, entityType, id, map[string]interface{}{"status": status})
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.wrap("failed to get schedule", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.observeWrite("delete", err)
		return s.wrap("failed to delete schedule", err)
	}
	s.observeWrite("delete", nil)

	s.auditor.Record(ctx, audit.ActionDelete, entityType, id, nil)
	s.publish(ctx, model.EventScheduleDeleted, sched)
	return nil
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get schedule", err)
	}
	return sched, nil
}

func (s *Service) ListSchedules(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list schedules: %w", err))
	}
	return list, nil
}

// WeeklyAvailability groups a doctor's active schedules by weekday, Monday
// first, each day sorted by start time. Days without schedules are included.
func (s *Service) WeeklyAvailability(ctx context.Context, doctorID uuid.UUID) ([]model.DayAvailability, error) {
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	active, err := s.repo.List(ctx, &model.ScheduleFilters{
		DoctorID: doctorID,
		Status:   model.ScheduleStatusActive,
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list schedules: %w", err))
	}

	week := make([]model.DayAvailability, 0, len(model.AllWeekdays))
	for _, day := range model.AllWeekdays {
		slots := []*model.Schedule{}
		for _, sched := range active {
			if sched.WorkingDays.Contains(day) {
				slots = append(slots, sched)
			}
		}
		sort.SliceStable(slots, func(i, j int) bool {
			return slots[i].StartTime < slots[j].StartTime
		})
		week = append(week, model.DayAvailability{Day: day, Schedules: slots})
	}
	return week, nil
}

// ensureNoConflicts runs the overlap check for an active schedule against the
// doctor's saved schedules. Inactive schedules are never blocked.
func (s *Service) ensureNoConflicts(ctx context.Context, tx repository.ScheduleTx, source string, sched *model.Schedule, excludeID *uuid.UUID) error {
	if !sched.IsActive() {
		return nil
	}

	existing, err := tx.ListByDoctor(ctx, sched.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	draft := sched.Draft()
	conflicts := CheckOverlaps(draft, existing, excludeID)
	s.observeCheck(source, conflicts)
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: Describe(draft, conflicts)}
	}
	return nil
}

func prepare(sched *model.Schedule) {
	sched.WorkingDays = sched.WorkingDays.Normalize()
	if sched.Status == "" {
		sched.Status = model.ScheduleStatusActive
	}
}

func (s *Service) validate(message string, obj interface{}) error {
	if err := s.validator.Validate(obj); err != nil {
		var fields validator.Errors
		if errors.As(err, &fields) {
			return apperrors.BadRequest(message, err).WithDetails(fields)
		}
		return apperrors.BadRequest(message, err)
	}
	return nil
}

// wrap turns repository and conflict errors into AppErrors for the handlers.
func (s *Service) wrap(message string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return apperrors.Conflict("schedule conflicts with an existing schedule", map[string]interface{}{"conflicts": conflict.Conflicts}, conflict)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(entityType, err)
	default:
		return apperrors.Internal(fmt.Errorf("%s: %w", message, err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, sched *model.Schedule) {
	s.events.Publish(ctx, eventType, model.NewScheduleEvent(sched, audit.ActorFromContext(ctx), s.now().UTC()))
}

func (s *Service) observeCheck(source string, conflicts []*model.Schedule) {
	s.metrics.ConflictChecks.WithLabelValues(source).Inc()
	if len(conflicts) > 0 {
		s.metrics.ConflictsDetected.WithLabelValues(source).Inc()
	}
}

func (s *Service) observeWrite(op string, err error) {
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrScheduleConflict):
		status = "conflict"
	default:
		status = "error"
	}
	s.metrics.ScheduleWrites.WithLabelValues(op, status).Inc()
}

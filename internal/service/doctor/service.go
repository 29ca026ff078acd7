package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/event"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

const entityType = "doctor"

type DoctorServicer interface {
	CreateDoctor(ctx context.Context, d *model.Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	UpdateDoctor(ctx context.Context, d *model.Doctor) error
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
}

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Service struct {
	repo        repository.DoctorRepository
	departments repository.DepartmentRepository
	schedules   repository.ScheduleRepository
	validator   validator.Validator
	auditor     *audit.Service
	events      *event.EventService
	metrics     *metrics.Metrics
	cache       *cache.Cache
}

func NewService(
	repo repository.DoctorRepository,
	departments repository.DepartmentRepository,
	schedules repository.ScheduleRepository,
	v validator.Validator,
	auditor *audit.Service,
	events *event.EventService,
	m *metrics.Metrics,
	cacheCfg CacheConfig,
) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		schedules:   schedules,
		validator:   v,
		auditor:     auditor,
		events:      events,
		metrics:     m,
		cache:       cache.New(cacheCfg.TTL, cacheCfg.CleanupInterval),
	}
}

func (s *Service) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	d.ID = uuid.Nil
	if d.Status == "" {
		d.Status = model.DoctorStatusActive
	}
	if err := s.validateDoctor(ctx, d); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return s.wrap("failed to create doctor", err)
	}

	s.auditor.Record(ctx, audit.ActionCreate, entityType, d.ID, d)
	s.events.Publish(ctx, model.EventDoctorCreated, d)
	return nil
}

// GetDoctor reads through the in-process cache.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	key := id.String()
	if cached, found := s.cache.Get(key); found {
		s.metrics.CacheLookups.WithLabelValues(entityType, "hit").Inc()
		d := *cached.(*model.Doctor)
		return &d, nil
	}
	s.metrics.CacheLookups.WithLabelValues(entityType, "miss").Inc()

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap("failed to get doctor", err)
	}

	c := *d
	s.cache.Set(key, &c, cache.DefaultExpiration)
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, d *model.Doctor) error {
	if d.Status == "" {
		d.Status = model.DoctorStatusActive
	}
	if err := s.validateDoctor(ctx, d); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return s.wrap("failed to update doctor", err)
	}
	s.cache.Delete(d.ID.String())

	s.auditor.Record(ctx, audit.ActionUpdate, entityType, d.ID, d)
	s.events.Publish(ctx, model.EventDoctorUpdated, d)
	return nil
}

// DeleteDoctor is refused while the doctor still has active schedules.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDoctor(ctx, id); err != nil {
		return err
	}

	active, err := s.schedules.CountActiveByDoctor(ctx, id)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to count schedules: %w", err))
	}
	if active > 0 {
		return apperrors.Conflict(
			fmt.Sprintf("doctor still has %d active schedule(s)", active),
			map[string]interface{}{"active_schedules": active},
			nil,
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap("failed to delete doctor", err)
	}
	s.cache.Delete(id.String())

	s.auditor.Record(ctx, audit.ActionDelete, entityType, id, nil)
	s.events.Publish(ctx, model.EventDoctorDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	if filters != nil {
		filters.Search = strings.TrimSpace(filters.Search)
	}
	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list doctors: %w", err))
	}
	return doctors, nil
}

func (s *Service) validateDoctor(ctx context.Context, d *model.Doctor) error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if err := s.validator.Validate(d); err != nil {
		var fields validator.Errors
		if errors.As(err, &fields) {
			return apperrors.BadRequest("invalid doctor", err).WithDetails(fields)
		}
		return apperrors.BadRequest("invalid doctor", err)
	}

	if d.DepartmentID != nil {
		if _, err := s.departments.Get(ctx, *d.DepartmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.BadRequest("department does not exist", err)
			}
			return apperrors.Internal(fmt.Errorf("failed to get department: %w", err))
		}
	}
	return nil
}

func (s *Service) wrap(message string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(entityType, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("a doctor with this email already exists", nil, err)
	default:
		return apperrors.Internal(fmt.Errorf("%s: %w", message, err))
	}
}

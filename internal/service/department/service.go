package department

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/event"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

const entityType = "department"

type DepartmentServicer interface {
	CreateDepartment(ctx context.Context, d *model.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error)
	UpdateDepartment(ctx context.Context, d *model.Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	ListDepartments(ctx context.Context) ([]*model.Department, error)
}

type Service struct {
	repo      repository.DepartmentRepository
	doctors   repository.DoctorRepository
	validator validator.Validator
	auditor   *audit.Service
	events    *event.EventService
}

func NewService(
	repo repository.DepartmentRepository,
	doctors repository.DoctorRepository,
	v validator.Validator,
	auditor *audit.Service,
	events *event.EventService,
) *Service {
	return &Service{
		repo:      repo,
		doctors:   doctors,
		validator: v,
		auditor:   auditor,
		events:    events,
	}
}

func (s *Service) CreateDepartment(ctx context.Context, d *model.Department) error {
	d.ID = uuid.Nil
	if d.Status == "" {
		d.Status = model.DepartmentStatusActive
	}
	if err := s.validateDepartment(ctx, d); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return wrap("failed to create department", err)
	}

	s.auditor.Record(ctx, audit.ActionCreate, entityType, d.ID, d)
	s.events.Publish(ctx, model.EventDepartmentCreated, d)
	return nil
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap("failed to get department", err)
	}
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, d *model.Department) error {
	if d.Status == "" {
		d.Status = model.DepartmentStatusActive
	}
	if err := s.validateDepartment(ctx, d); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return wrap("failed to update department", err)
	}

	s.auditor.Record(ctx, audit.ActionUpdate, entityType, d.ID, d)
	s.events.Publish(ctx, model.EventDepartmentUpdated, d)
	return nil
}

// DeleteDepartment is refused while doctors are still assigned to it.
func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}

	assigned, err := s.doctors.CountByDepartment(ctx, id)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to count doctors: %w", err))
	}
	if assigned > 0 {
		return apperrors.Conflict(
			fmt.Sprintf("department still has %d doctor(s)", assigned),
			map[string]interface{}{"doctors": assigned},
			nil,
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("failed to delete department", err)
	}

	s.auditor.Record(ctx, audit.ActionDelete, entityType, id, nil)
	s.events.Publish(ctx, model.EventDepartmentDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*model.Department, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list departments: %w", err))
	}
	return list, nil
}

func (s *Service) validateDepartment(ctx context.Context, d *model.Department) error {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.Name = strings.TrimSpace(d.Name)
	if err := s.validator.Validate(d); err != nil {
		var fields validator.Errors
		if errors.As(err, &fields) {
			return apperrors.BadRequest("invalid department", err).WithDetails(fields)
		}
		return apperrors.BadRequest("invalid department", err)
	}

	if d.HeadDoctorID != nil {
		if _, err := s.doctors.Get(ctx, *d.HeadDoctorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.BadRequest("head doctor does not exist", err)
			}
			return apperrors.Internal(fmt.Errorf("failed to get doctor: %w", err))
		}
	}
	return nil
}

func wrap(message string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(entityType, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("a department with this name or code already exists", nil, err)
	default:
		return apperrors.Internal(fmt.Errorf("%s: %w", message, err))
	}
}

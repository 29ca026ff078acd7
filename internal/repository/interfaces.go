package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	// ScheduleRepository stores weekly doctor schedules. Writes go through
	// WithDoctorLock so the overlap check and the write cannot interleave with
	// another writer for the same doctor.
	ScheduleRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
		List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error)
		CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
		Delete(ctx context.Context, id uuid.UUID) error
		WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(tx ScheduleTx) error) error
	}

	// ScheduleTx is the view of the schedule store available while a doctor's
	// lock is held.
	ScheduleTx interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error)
		Create(ctx context.Context, schedule *model.Schedule) error
		Update(ctx context.Context, schedule *model.Schedule) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int, error)
	}

	DepartmentRepository interface {
		Create(ctx context.Context, dept *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		Update(ctx context.Context, dept *model.Department) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Department, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

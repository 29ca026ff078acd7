package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/repository"
)

type scheduleRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type departmentRepository struct {
	BaseRepository
}

type auditRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{NewBaseRepository(db)}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const scheduleColumns = `
	id, doctor_id, working_days, start_time, end_time,
	slot_duration, max_patients_per_session, consultation_mode, room_number,
	valid_from, valid_to, status, created_at, updated_at`

func getSchedule(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM doctor_schedules WHERE id = $1`

	var s model.Schedule
	if err := sqlx.GetContext(ctx, q, &s, query, id); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func listSchedules(ctx context.Context, q sqlx.QueryerContext, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM doctor_schedules WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Day != "" {
			query += fmt.Sprintf(" AND $%d = ANY(working_days)", argCount)
			args = append(args, string(filters.Day))
			argCount++
		}
	}

	query += " ORDER BY doctor_id, start_time, id"

	schedules := []*model.Schedule{}
	if err := sqlx.SelectContext(ctx, q, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	return getSchedule(ctx, r.db, id)
}

func (r *scheduleRepository) List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	return listSchedules(ctx, r.db, filters)
}

func (r *scheduleRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error) {
	return listSchedules(ctx, r.db, &model.ScheduleFilters{DoctorID: doctorID})
}

func (r *scheduleRepository) CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM doctor_schedules WHERE doctor_id = $1 AND status = $2`

	var n int
	if err := r.db.GetContext(ctx, &n, query, doctorID, model.ScheduleStatusActive); err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return checkAffected(result)
}

// WithDoctorLock takes a transaction-scoped advisory lock keyed on the doctor,
// so concurrent writers for one doctor run their check-then-write one at a time.
func (r *scheduleRepository) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(tx repository.ScheduleTx) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, doctorID.String()); err != nil {
			return fmt.Errorf("failed to lock doctor schedules: %w", err)
		}
		return fn(&scheduleTx{tx: tx})
	})
}

type scheduleTx struct {
	tx *sqlx.Tx
}

func (s *scheduleTx) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	return getSchedule(ctx, s.tx, id)
}

func (s *scheduleTx) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error) {
	return listSchedules(ctx, s.tx, &model.ScheduleFilters{DoctorID: doctorID})
}

func (s *scheduleTx) Create(ctx context.Context, schedule *model.Schedule) error {
	query := `
		INSERT INTO doctor_schedules (
			id, doctor_id, working_days, start_time, end_time,
			slot_duration, max_patients_per_session, consultation_mode, room_number,
			valid_from, valid_to, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	_, err := s.tx.ExecContext(ctx, query,
		schedule.ID,
		schedule.DoctorID,
		schedule.WorkingDays,
		schedule.StartTime,
		schedule.EndTime,
		schedule.SlotDuration,
		schedule.MaxPatientsPerSession,
		schedule.ConsultationMode,
		schedule.RoomNumber,
		schedule.ValidFrom,
		schedule.ValidTo,
		schedule.Status,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", translate(err))
	}
	return nil
}

func (s *scheduleTx) Update(ctx context.Context, schedule *model.Schedule) error {
	query := `
		UPDATE doctor_schedules
		SET working_days = $1, start_time = $2, end_time = $3,
			slot_duration = $4, max_patients_per_session = $5,
			consultation_mode = $6, room_number = $7,
			valid_from = $8, valid_to = $9, status = $10, updated_at = $11
		WHERE id = $12
		RETURNING created_at
	`
	schedule.UpdatedAt = time.Now().UTC()

	err := s.tx.QueryRowxContext(ctx, query,
		schedule.WorkingDays,
		schedule.StartTime,
		schedule.EndTime,
		schedule.SlotDuration,
		schedule.MaxPatientsPerSession,
		schedule.ConsultationMode,
		schedule.RoomNumber,
		schedule.ValidFrom,
		schedule.ValidTo,
		schedule.Status,
		schedule.UpdatedAt,
		schedule.ID,
	).Scan(&schedule.CreatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

const doctorColumns = `
	id, name, email, phone, specialization, department_id,
	license_number, consultation_fee, status, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, d *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, name, email, phone, specialization, department_id,
			license_number, consultation_fee, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Email, d.Phone, d.Specialization, d.DepartmentID,
		d.LicenseNumber, d.ConsultationFee, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", translate(err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var d model.Doctor
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *doctorRepository) Update(ctx context.Context, d *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, email = $2, phone = $3, specialization = $4, department_id = $5,
			license_number = $6, consultation_fee = $7, status = $8, updated_at = $9
		WHERE id = $10
		RETURNING created_at
	`
	d.UpdatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.Email, d.Phone, d.Specialization, d.DepartmentID,
		d.LicenseNumber, d.ConsultationFee, d.Status, d.UpdatedAt, d.ID,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", translate(err))
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return checkAffected(result)
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DepartmentID != uuid.Nil {
			query += fmt.Sprintf(" AND department_id = $%d", argCount)
			args = append(args, filters.DepartmentID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Specialization != "" {
			query += fmt.Sprintf(" AND LOWER(specialization) = LOWER($%d)", argCount)
			args = append(args, filters.Specialization)
			argCount++
		}
		if filters.Search != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.Search+"%")
			argCount++
		}
	}

	query += " ORDER BY name ASC"

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM doctors WHERE department_id = $1`, departmentID); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

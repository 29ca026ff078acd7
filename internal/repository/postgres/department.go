package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

const departmentColumns = `id, name, code, description, head_doctor_id, status, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, d *model.Department) error {
	query := `
		INSERT INTO departments (id, name, code, description, head_doctor_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Code, d.Description, d.HeadDoctorID, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", translate(err))
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	var d model.Department
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *departmentRepository) Update(ctx context.Context, d *model.Department) error {
	query := `
		UPDATE departments
		SET name = $1, code = $2, description = $3, head_doctor_id = $4, status = $5, updated_at = $6
		WHERE id = $7
		RETURNING created_at
	`
	d.UpdatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.Code, d.Description, d.HeadDoctorID, d.Status, d.UpdatedAt, d.ID,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", translate(err))
	}
	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return checkAffected(result)
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY name ASC`

	depts := []*model.Department{}
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

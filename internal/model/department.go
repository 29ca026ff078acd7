package model

import (
	"github.com/google/uuid"
)

type DepartmentStatus string

const (
	DepartmentStatusActive   DepartmentStatus = "active"
	DepartmentStatusInactive DepartmentStatus = "inactive"
)

type Department struct {
	Base
	Name         string           `db:"name" json:"name" validate:"required,min=2,max=80"`
	Code         string           `db:"code" json:"code" validate:"required,deptcode"`
	Description  string           `db:"description" json:"description,omitempty" validate:"max=500"`
	HeadDoctorID *uuid.UUID       `db:"head_doctor_id" json:"head_doctor_id,omitempty"`
	Status       DepartmentStatus `db:"status" json:"status" validate:"required,oneof=active inactive"`
}

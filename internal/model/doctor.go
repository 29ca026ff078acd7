package model

import (
	"github.com/google/uuid"
)

type DoctorStatus string

const (
	DoctorStatusActive   DoctorStatus = "active"
	DoctorStatusInactive DoctorStatus = "inactive"
	DoctorStatusOnLeave  DoctorStatus = "on-leave"
)

type Doctor struct {
	Base
	Name            string       `db:"name" json:"name" validate:"required,min=2,max=120"`
	Email           string       `db:"email" json:"email" validate:"required,email"`
	Phone           string       `db:"phone" json:"phone,omitempty" validate:"omitempty,e164"`
	Specialization  string       `db:"specialization" json:"specialization" validate:"required,max=80"`
	DepartmentID    *uuid.UUID   `db:"department_id" json:"department_id,omitempty"`
	LicenseNumber   string       `db:"license_number" json:"license_number" validate:"required,alphanum,min=4,max=32"`
	ConsultationFee float64      `db:"consultation_fee" json:"consultation_fee" validate:"gte=0"`
	Status          DoctorStatus `db:"status" json:"status" validate:"required,oneof=active inactive on-leave"`
}

type DoctorFilters struct {
	DepartmentID   uuid.UUID
	Status         DoctorStatus
	Specialization string
	Search         string
}

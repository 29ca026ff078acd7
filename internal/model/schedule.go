package model

import (
	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusInactive ScheduleStatus = "inactive"
)

type ConsultationMode string

const (
	ConsultationInPerson ConsultationMode = "in-person"
	ConsultationOnline   ConsultationMode = "online"
	ConsultationBoth     ConsultationMode = "both"
)

// RequiresRoom reports whether patients are seen physically, which needs a room.
func (m ConsultationMode) RequiresRoom() bool {
	return m == ConsultationInPerson || m == ConsultationBoth
}

const (
	MinSlotDuration       = 10
	MinPatientsPerSession = 1
)

// Schedule is a weekly recurring availability block for a doctor.
type Schedule struct {
	Base
	DoctorID              uuid.UUID        `db:"doctor_id" json:"doctor_id" validate:"required"`
	WorkingDays           Weekdays         `db:"working_days" json:"working_days" validate:"required,min=1,dive,weekday"`
	StartTime             TimeOfDay        `db:"start_time" json:"start_time" validate:"timeofday"`
	EndTime               TimeOfDay        `db:"end_time" json:"end_time" validate:"timeofday"`
	SlotDuration          int              `db:"slot_duration" json:"slot_duration" validate:"min=10"`
	MaxPatientsPerSession int              `db:"max_patients_per_session" json:"max_patients_per_session" validate:"min=1"`
	ConsultationMode      ConsultationMode `db:"consultation_mode" json:"consultation_mode" validate:"required,oneof=in-person online both"`
	RoomNumber            string           `db:"room_number" json:"room_number,omitempty" validate:"max=32"`
	ValidFrom             Date             `db:"valid_from" json:"valid_from"`
	ValidTo               *Date            `db:"valid_to" json:"valid_to,omitempty"`
	Status                ScheduleStatus   `db:"status" json:"status" validate:"required,oneof=active inactive"`
}

func (s *Schedule) IsActive() bool {
	return s.Status == ScheduleStatusActive
}

// Draft returns the fields of s that take part in conflict detection.
func (s *Schedule) Draft() ScheduleDraft {
	return ScheduleDraft{
		DoctorID:    s.DoctorID,
		WorkingDays: s.WorkingDays,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Status:      s.Status,
	}
}

// ScheduleDraft is an unsaved schedule being checked for conflicts.
type ScheduleDraft struct {
	DoctorID    uuid.UUID      `json:"doctor_id" validate:"required"`
	WorkingDays Weekdays       `json:"working_days" validate:"required,min=1,dive,weekday"`
	StartTime   TimeOfDay      `json:"start_time" validate:"timeofday"`
	EndTime     TimeOfDay      `json:"end_time" validate:"timeofday"`
	Status      ScheduleStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// ScheduleRequest is the create/update payload. Pointers distinguish a missing
// time from midnight.
type ScheduleRequest struct {
	DoctorID              uuid.UUID        `json:"doctor_id" validate:"required"`
	WorkingDays           Weekdays         `json:"working_days" validate:"required,min=1,dive,weekday"`
	StartTime             *TimeOfDay       `json:"start_time" validate:"required"`
	EndTime               *TimeOfDay       `json:"end_time" validate:"required"`
	SlotDuration          int              `json:"slot_duration" validate:"required"`
	MaxPatientsPerSession int              `json:"max_patients_per_session" validate:"required"`
	ConsultationMode      ConsultationMode `json:"consultation_mode" validate:"required"`
	RoomNumber            string           `json:"room_number"`
	ValidFrom             *Date            `json:"valid_from" validate:"required"`
	ValidTo               *Date            `json:"valid_to"`
	Status                ScheduleStatus   `json:"status"`
}

// ToSchedule builds a schedule from the request, defaulting status to active.
func (r *ScheduleRequest) ToSchedule() *Schedule {
	s := &Schedule{
		DoctorID:              r.DoctorID,
		WorkingDays:           r.WorkingDays.Normalize(),
		SlotDuration:          r.SlotDuration,
		MaxPatientsPerSession: r.MaxPatientsPerSession,
		ConsultationMode:      r.ConsultationMode,
		RoomNumber:            r.RoomNumber,
		ValidTo:               r.ValidTo,
		Status:                r.Status,
	}
	if r.StartTime != nil {
		s.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		s.EndTime = *r.EndTime
	}
	if r.ValidFrom != nil {
		s.ValidFrom = *r.ValidFrom
	}
	if s.Status == "" {
		s.Status = ScheduleStatusActive
	}
	return s
}

type StatusRequest struct {
	Status ScheduleStatus `json:"status" validate:"required,oneof=active inactive"`
}

// ConflictCheckRequest asks whether a draft collides with saved schedules.
// ExcludeID names the schedule being edited.
type ConflictCheckRequest struct {
	ScheduleDraft
	ExcludeID *uuid.UUID `json:"exclude_id,omitempty"`
}

// Conflict describes one colliding schedule for display in a warning panel.
type Conflict struct {
	Schedule   *Schedule `json:"schedule"`
	CommonDays Weekdays  `json:"common_days"`
	From       TimeOfDay `json:"overlap_from"`
	To         TimeOfDay `json:"overlap_to"`
}

type ScheduleFilters struct {
	DoctorID uuid.UUID
	Status   ScheduleStatus
	Day      Weekday
}

// DayAvailability is one weekday of a doctor's active weekly timetable.
type DayAvailability struct {
	Day       Weekday     `json:"day"`
	Schedules []*Schedule `json:"schedules"`
}

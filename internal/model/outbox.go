package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Event types written to the outbox.
const (
	EventScheduleCreated     = "schedule.created"
	EventScheduleUpdated     = "schedule.updated"
	EventScheduleActivated   = "schedule.activated"
	EventScheduleDeactivated = "schedule.deactivated"
	EventScheduleDeleted     = "schedule.deleted"
	EventDoctorCreated       = "doctor.created"
	EventDoctorUpdated       = "doctor.updated"
	EventDoctorDeleted       = "doctor.deleted"
	EventDepartmentCreated   = "department.created"
	EventDepartmentUpdated   = "department.updated"
	EventDepartmentDeleted   = "department.deleted"
)

// ScheduleEvent is the payload of every schedule.* event.
type ScheduleEvent struct {
	ScheduleID  uuid.UUID      `json:"schedule_id"`
	DoctorID    uuid.UUID      `json:"doctor_id"`
	WorkingDays Weekdays       `json:"working_days"`
	StartTime   TimeOfDay      `json:"start_time"`
	EndTime     TimeOfDay      `json:"end_time"`
	Status      ScheduleStatus `json:"status"`
	Actor       string         `json:"actor"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewScheduleEvent(s *Schedule, actor string, at time.Time) ScheduleEvent {
	return ScheduleEvent{
		ScheduleID:  s.ID,
		DoctorID:    s.DoctorID,
		WorkingDays: s.WorkingDays,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Status:      s.Status,
		Actor:       actor,
		OccurredAt:  at,
	}
}

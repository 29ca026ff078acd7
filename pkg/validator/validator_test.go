package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
)

func validSchedule() model.Schedule {
	return model.Schedule{
		DoctorID:              uuid.New(),
		WorkingDays:           model.Weekdays{model.Monday, model.Thursday},
		StartTime:             model.MustTimeOfDay("09:00"),
		EndTime:               model.MustTimeOfDay("13:00"),
		SlotDuration:          15,
		MaxPatientsPerSession: 4,
		ConsultationMode:      model.ConsultationInPerson,
		RoomNumber:            "B-12",
		ValidFrom:             model.NewDate(2025, time.January, 1),
		Status:                model.ScheduleStatusActive,
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var errs Errors
	require.ErrorAs(t, err, &errs)
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestScheduleRules(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(validSchedule()))

	tests := []struct {
		name    string
		mutate  func(*model.Schedule)
		field   string
		message string
	}{
		{"end equals start", func(s *model.Schedule) { s.EndTime = s.StartTime }, "end_time", "must be after start_time"},
		{"end before start", func(s *model.Schedule) { s.EndTime = model.MustTimeOfDay("08:00") }, "end_time", "must be after start_time"},
		{"no days", func(s *model.Schedule) { s.WorkingDays = model.Weekdays{} }, "working_days", "must contain at least 1 item(s)"},
		{"bad day", func(s *model.Schedule) { s.WorkingDays = model.Weekdays{"someday"} }, "working_days[0]", "must be a weekday such as monday"},
		{"short slot", func(s *model.Schedule) { s.SlotDuration = 5 }, "slot_duration", "must be at least 10"},
		{"no patients", func(s *model.Schedule) { s.MaxPatientsPerSession = 0 }, "max_patients_per_session", "must be at least 1"},
		{"room for in-person", func(s *model.Schedule) { s.RoomNumber = "  " }, "room_number", "is required for in-person consultations"},
		{"bad mode", func(s *model.Schedule) { s.ConsultationMode = "phone" }, "consultation_mode", "must be one of [in-person online both]"},
		{"missing doctor", func(s *model.Schedule) { s.DoctorID = uuid.Nil }, "doctor_id", "is required"},
		{"missing valid_from", func(s *model.Schedule) { s.ValidFrom = model.Date{} }, "valid_from", "is required"},
		{"valid_to before valid_from", func(s *model.Schedule) {
			to := model.NewDate(2024, time.December, 31)
			s.ValidTo = &to
		}, "valid_to", "must not be before valid_from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(&s)
			fields := fieldsOf(t, v.Validate(s))
			assert.Equal(t, tt.message, fields[tt.field], "fields: %v", fields)
		})
	}
}

func TestOnlineScheduleNeedsNoRoom(t *testing.T) {
	s := validSchedule()
	s.ConsultationMode = model.ConsultationOnline
	s.RoomNumber = ""
	assert.NoError(t, New().Validate(s))
}

func TestDraftRules(t *testing.T) {
	v := New()
	draft := model.ScheduleDraft{
		DoctorID:    uuid.New(),
		WorkingDays: model.Weekdays{model.Friday},
		StartTime:   model.MustTimeOfDay("10:00"),
		EndTime:     model.MustTimeOfDay("10:30"),
	}
	require.NoError(t, v.Validate(draft))

	draft.EndTime = draft.StartTime
	fields := fieldsOf(t, v.Validate(draft))
	assert.Contains(t, fields, "end_time")
}

func TestDepartmentCode(t *testing.T) {
	v := New()
	dept := model.Department{Name: "Cardiology", Code: "CARD", Status: model.DepartmentStatusActive}
	require.NoError(t, v.Validate(dept))

	for _, code := range []string{"C", "card", "CARD1", "CARDIOLOGYX"} {
		dept.Code = code
		fields := fieldsOf(t, v.Validate(dept))
		assert.Equal(t, "must be 2-10 upper-case letters", fields["code"], code)
	}
}

func TestDoctorRules(t *testing.T) {
	v := New()
	doc := model.Doctor{
		Name:           "Gregory House",
		Email:          "house@example.com",
		Specialization: "Diagnostics",
		LicenseNumber:  "LIC1234",
		Status:         model.DoctorStatusActive,
	}
	require.NoError(t, v.Validate(doc))

	doc.Email = "not-an-email"
	doc.ConsultationFee = -1
	fields := fieldsOf(t, v.Validate(doc))
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Contains(t, fields, "consultation_fee")
}

func TestErrorsString(t *testing.T) {
	errs := Errors{{Field: "a", Message: "is required"}, {Field: "b", Message: "must be at least 1"}}
	assert.Equal(t, "a: is required; b: must be at least 1", errs.Error())
}

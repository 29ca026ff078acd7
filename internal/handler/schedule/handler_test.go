package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	doctorService "github.com/jwalitptl/hms-api/internal/service/doctor"
	"github.com/jwalitptl/hms-api/internal/service/event"
	scheduleService "github.com/jwalitptl/hms-api/internal/service/schedule"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	doctors := memory.NewDoctorRepository()
	schedules := memory.NewScheduleRepository()
	outbox := memory.NewOutboxRepository()
	v := validator.New()
	m := metrics.NewNop()
	auditor := audit.NewService(memory.NewAuditRepository())
	events := event.NewEventService(outbox)

	doctorSvc := doctorService.NewService(doctors, memory.NewDepartmentRepository(), schedules, v, auditor, events, m,
		doctorService.CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute})
	d := &model.Doctor{
		Name:           "Asha Rao",
		Email:          "asha@example.com",
		Specialization: "Cardiology",
		LicenseNumber:  "MH1234",
	}
	require.NoError(t, doctorSvc.CreateDoctor(context.Background(), d))

	h := NewHandler(scheduleService.NewService(schedules, doctorSvc, v, auditor, events, m), v)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return r, d.ID
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func scheduleBody(doctorID uuid.UUID, start, end string, days ...string) map[string]interface{} {
	return map[string]interface{}{
		"doctor_id":                doctorID,
		"working_days":             days,
		"start_time":               start,
		"end_time":                 end,
		"slot_duration":            15,
		"max_patients_per_session": 4,
		"consultation_mode":        "in-person",
		"room_number":              "OPD-12",
		"valid_from":               "2025-01-01",
	}
}

func TestCreateSchedule(t *testing.T) {
	r, doctorID := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "Mon", "wednesday"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "success", env.Status)

	var created model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, model.Weekdays{model.Monday, model.Wednesday}, created.WorkingDays)
	assert.Equal(t, model.ScheduleStatusActive, created.Status)
}

func TestCreateScheduleConflict(t *testing.T) {
	r, doctorID := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday", "wednesday"))
	require.Equal(t, http.StatusCreated, w.Code)
	var first model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &first))

	w, env = do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "11:00", "13:00", "wednesday"))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", env.Status)

	var data struct {
		Conflicts []model.Conflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Conflicts, 1)
	assert.Equal(t, first.ID, data.Conflicts[0].Schedule.ID)
	assert.Equal(t, model.Weekdays{model.Wednesday}, data.Conflicts[0].CommonDays)
	assert.Equal(t, model.MustTimeOfDay("11:00"), data.Conflicts[0].From)
	assert.Equal(t, model.MustTimeOfDay("12:00"), data.Conflicts[0].To)
}

func TestCreateScheduleValidation(t *testing.T) {
	r, doctorID := setupRouter(t)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name:  "end before start",
			body:  scheduleBody(doctorID, "12:00", "09:00", "monday"),
			field: "end_time",
		},
		{
			name: "room required in person",
			body: func() map[string]interface{} {
				b := scheduleBody(doctorID, "09:00", "12:00", "monday")
				delete(b, "room_number")
				return b
			}(),
			field: "room_number",
		},
		{
			name: "slot too short",
			body: func() map[string]interface{} {
				b := scheduleBody(doctorID, "09:00", "12:00", "monday")
				b["slot_duration"] = 5
				return b
			}(),
			field: "slot_duration",
		},
		{
			name: "missing start time",
			body: func() map[string]interface{} {
				b := scheduleBody(doctorID, "09:00", "12:00", "monday")
				delete(b, "start_time")
				return b
			}(),
			field: "start_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/schedules", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var fields []validator.FieldError
			require.NoError(t, json.Unmarshal(env.Data, &fields))
			var names []string
			for _, f := range fields {
				names = append(names, f.Field)
			}
			assert.Contains(t, names, tt.field)
		})
	}
}

func TestCreateScheduleMalformedBody(t *testing.T) {
	r, doctorID := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "someday"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "invalid weekday")
}

func TestCreateScheduleUnknownDoctor(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(uuid.New(), "09:00", "12:00", "monday"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckConflicts(t *testing.T) {
	r, doctorID := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday"))
	require.Equal(t, http.StatusCreated, w.Code)
	var saved model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &saved))

	type result struct {
		Conflicts   []model.Conflict `json:"conflicts"`
		HasConflict bool             `json:"has_conflict"`
	}

	t.Run("touching boundary", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/v1/schedules/check", map[string]interface{}{
			"doctor_id": doctorID, "working_days": []string{"monday"}, "start_time": "12:00", "end_time": "14:00",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var res result
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.False(t, res.HasConflict)
		assert.NotNil(t, res.Conflicts)
		assert.Empty(t, res.Conflicts)
	})

	t.Run("overlap", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/v1/schedules/check", map[string]interface{}{
			"doctor_id": doctorID, "working_days": []string{"Mon"}, "start_time": "10:00", "end_time": "11:00",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var res result
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.True(t, res.HasConflict)
		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, saved.ID, res.Conflicts[0].Schedule.ID)
	})

	t.Run("excluded while editing", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/v1/schedules/check", map[string]interface{}{
			"doctor_id": doctorID, "working_days": []string{"monday"}, "start_time": "10:00", "end_time": "11:00",
			"exclude_id": saved.ID,
		})
		require.Equal(t, http.StatusOK, w.Code)
		var res result
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.False(t, res.HasConflict)
	})
}

func TestGetSchedule(t *testing.T) {
	r, doctorID := setupRouter(t)

	_, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday"))
	var saved model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &saved))

	w, env := do(t, r, http.MethodGet, "/api/v1/schedules/"+saved.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, saved.ID, got.ID)

	w, _ = do(t, r, http.MethodGet, "/api/v1/schedules/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/schedules/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateScheduleExcludesItself(t *testing.T) {
	r, doctorID := setupRouter(t)

	_, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday"))
	var saved model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &saved))

	w, env := do(t, r, http.MethodPut, "/api/v1/schedules/"+saved.ID.String(), scheduleBody(doctorID, "10:00", "13:00", "monday"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, model.MustTimeOfDay("13:00"), updated.EndTime)
}

func TestSetStatusAndReactivate(t *testing.T) {
	r, doctorID := setupRouter(t)

	_, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday"))
	var first model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &first))

	w, _ := do(t, r, http.MethodPatch, "/api/v1/schedules/"+first.ID.String()+"/status", map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code)

	// the slot is free again once the first block is inactive
	w, _ = do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "10:00", "11:00", "monday"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/api/v1/schedules/"+first.ID.String()+"/status", map[string]string{"status": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/api/v1/schedules/"+first.ID.String()+"/status", map[string]string{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndDeleteSchedules(t *testing.T) {
	r, doctorID := setupRouter(t)

	do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday"))
	_, env := do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "14:00", "16:00", "friday"))
	var friday model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &friday))

	w, env := do(t, r, http.MethodGet, "/api/v1/schedules?doctor_id="+doctorID.String()+"&day=fri", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, friday.ID, list[0].ID)

	w, _ = do(t, r, http.MethodGet, "/api/v1/schedules?day=someday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/schedules/"+friday.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/schedules/"+friday.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeklyAvailability(t *testing.T) {
	r, doctorID := setupRouter(t)

	do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "14:00", "16:00", "monday"))
	do(t, r, http.MethodPost, "/api/v1/schedules", scheduleBody(doctorID, "09:00", "12:00", "monday", "tuesday"))

	w, env := do(t, r, http.MethodGet, "/api/v1/doctors/"+doctorID.String()+"/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var week []model.DayAvailability
	require.NoError(t, json.Unmarshal(env.Data, &week))
	require.Len(t, week, 7)
	assert.Equal(t, model.Monday, week[0].Day)
	require.Len(t, week[0].Schedules, 2)
	assert.Equal(t, model.MustTimeOfDay("09:00"), week[0].Schedules[0].StartTime)
	assert.Len(t, week[1].Schedules, 1)
	assert.Empty(t, week[6].Schedules)

	w, _ = do(t, r, http.MethodGet, "/api/v1/doctors/"+uuid.NewString()+"/availability", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

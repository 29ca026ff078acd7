package doctor

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/event"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

type fixture struct {
	svc         *Service
	doctors     repository.DoctorRepository
	departments repository.DepartmentRepository
	schedules   repository.ScheduleRepository
	audits      repository.AuditRepository
	outbox      repository.OutboxRepository
	metrics     *metrics.Metrics
}

func newFixture() *fixture {
	f := &fixture{
		doctors:     memory.NewDoctorRepository(),
		departments: memory.NewDepartmentRepository(),
		schedules:   memory.NewScheduleRepository(),
		audits:      memory.NewAuditRepository(),
		outbox:      memory.NewOutboxRepository(),
		metrics:     metrics.NewNop(),
	}
	f.svc = NewService(f.doctors, f.departments, f.schedules, validator.New(),
		audit.NewService(f.audits), event.NewEventService(f.outbox), f.metrics,
		CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute})
	return f
}

func newDoctor() *model.Doctor {
	return &model.Doctor{
		Name:           "Meera Iyer",
		Email:          "  Meera@Example.com ",
		Specialization: "Neurology",
		LicenseNumber:  "KA5678",
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode()
}

func TestCreateDoctor(t *testing.T) {
	f := newFixture()
	ctx := audit.WithActor(context.Background(), "admin-1")

	d := newDoctor()
	require.NoError(t, f.svc.CreateDoctor(ctx, d))
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, "meera@example.com", d.Email)
	assert.Equal(t, model.DoctorStatusActive, d.Status)

	logs, err := f.audits.ListByEntity(ctx, entityType, d.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-1", logs[0].Actor)
	assert.Equal(t, audit.ActionCreate, logs[0].Action)

	pending, err := f.outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventDoctorCreated, pending[0].EventType)
}

func TestCreateDoctorRejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.CreateDoctor(ctx, newDoctor()))

	t.Run("duplicate email", func(t *testing.T) {
		d := newDoctor()
		d.LicenseNumber = "KA9999"
		assert.Equal(t, http.StatusConflict, statusOf(t, f.svc.CreateDoctor(ctx, d)))
	})

	t.Run("invalid fields", func(t *testing.T) {
		d := newDoctor()
		d.Email = "nope"
		d.Name = ""
		err := f.svc.CreateDoctor(ctx, d)
		require.Equal(t, http.StatusBadRequest, statusOf(t, err))
		appErr, _ := apperrors.As(err)
		fields, ok := appErr.Details.(validator.Errors)
		require.True(t, ok)
		assert.Len(t, fields, 2)
	})

	t.Run("unknown department", func(t *testing.T) {
		d := newDoctor()
		d.Email = "other@example.com"
		missing := uuid.New()
		d.DepartmentID = &missing
		err := f.svc.CreateDoctor(ctx, d)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		assert.ErrorContains(t, err, "department does not exist")
	})
}

func TestGetDoctorUsesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := newDoctor()
	require.NoError(t, f.svc.CreateDoctor(ctx, d))

	_, err := f.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	got, err := f.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues(entityType, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues(entityType, "hit")))

	// callers must not be able to poison the cached copy
	got.Name = "Changed"
	again, err := f.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", again.Name)

	_, err = f.svc.GetDoctor(ctx, uuid.New())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUpdateDoctorInvalidatesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := newDoctor()
	require.NoError(t, f.svc.CreateDoctor(ctx, d))
	_, err := f.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)

	d.Status = model.DoctorStatusOnLeave
	require.NoError(t, f.svc.UpdateDoctor(ctx, d))

	got, err := f.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DoctorStatusOnLeave, got.Status)
}

func TestDeleteDoctorBlockedByActiveSchedules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := newDoctor()
	require.NoError(t, f.svc.CreateDoctor(ctx, d))

	s := &model.Schedule{
		DoctorID:    d.ID,
		WorkingDays: model.Weekdays{model.Monday},
		StartTime:   model.MustTimeOfDay("09:00"),
		EndTime:     model.MustTimeOfDay("10:00"),
		Status:      model.ScheduleStatusActive,
	}
	require.NoError(t, f.schedules.WithDoctorLock(ctx, d.ID, func(tx repository.ScheduleTx) error {
		return tx.Create(ctx, s)
	}))

	err := f.svc.DeleteDoctor(ctx, d.ID)
	require.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.ErrorContains(t, err, "1 active schedule")

	s.Status = model.ScheduleStatusInactive
	require.NoError(t, f.schedules.WithDoctorLock(ctx, d.ID, func(tx repository.ScheduleTx) error {
		return tx.Update(ctx, s)
	}))

	require.NoError(t, f.svc.DeleteDoctor(ctx, d.ID))
	_, err = f.svc.GetDoctor(ctx, d.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestListDoctorsTrimsSearch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.CreateDoctor(ctx, newDoctor()))

	list, err := f.svc.ListDoctors(ctx, &model.DoctorFilters{Search: "  meera "})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

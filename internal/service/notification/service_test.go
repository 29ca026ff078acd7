package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	args := m.Called(ctx, to, subject, content)
	return args.Error(0)
}

func seedDoctor(t *testing.T) (*model.Doctor, DoctorGetter) {
	t.Helper()
	repo := memory.NewDoctorRepository()
	d := &model.Doctor{
		Name:           "Asha Rao",
		Email:          "asha@example.com",
		Specialization: "Cardiology",
		LicenseNumber:  "MH1234",
		Status:         model.DoctorStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), d))
	return d, repo
}

func eventPayload(t *testing.T, doctorID uuid.UUID) []byte {
	t.Helper()
	evt := model.ScheduleEvent{
		DoctorID:    doctorID,
		WorkingDays: model.Weekdays{model.Monday, model.Wednesday},
		StartTime:   model.MustTimeOfDay("09:00"),
		EndTime:     model.MustTimeOfDay("12:00"),
		Status:      model.ScheduleStatusActive,
		Actor:       "admin",
		OccurredAt:  time.Now(),
	}
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

func TestHandleSendsEmailToDoctor(t *testing.T) {
	doctor, doctors := seedDoctor(t)
	mailer := &mockMailer{}
	mailer.On("SendCustom", mock.Anything, "asha@example.com", "Your consultation schedule was added",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Monday, Wednesday") && strings.Contains(body, "09:00 - 12:00")
		})).Return(nil)

	m := metrics.NewNop()
	n := NewScheduleNotifier(doctors, mailer, nil, logger.Nop(), m)

	require.NoError(t, n.Handle(context.Background(), model.EventScheduleCreated, eventPayload(t, doctor.ID)))
	mailer.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("sent")))
}

func TestHandleFailures(t *testing.T) {
	doctor, doctors := seedDoctor(t)

	t.Run("bad payload", func(t *testing.T) {
		n := NewScheduleNotifier(doctors, &mockMailer{}, nil, logger.Nop(), metrics.NewNop())
		assert.Error(t, n.Handle(context.Background(), model.EventScheduleCreated, []byte("{")))
	})

	t.Run("unknown doctor", func(t *testing.T) {
		n := NewScheduleNotifier(doctors, &mockMailer{}, nil, logger.Nop(), metrics.NewNop())
		assert.Error(t, n.Handle(context.Background(), model.EventScheduleCreated, eventPayload(t, uuid.New())))
	})

	t.Run("mailer error", func(t *testing.T) {
		mailer := &mockMailer{}
		mailer.On("SendCustom", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		m := metrics.NewNop()
		n := NewScheduleNotifier(doctors, mailer, nil, logger.Nop(), m)

		assert.Error(t, n.Handle(context.Background(), model.EventScheduleDeleted, eventPayload(t, doctor.ID)))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("failed")))
	})
}

func TestStartSubscribesThroughBroker(t *testing.T) {
	doctor, doctors := seedDoctor(t)

	sent := make(chan string, 1)
	mailer := &mockMailer{}
	mailer.On("SendCustom", mock.Anything, "asha@example.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent <- args.String(2) }).
		Return(nil)

	local := messaging.NewLocalBroker()
	defer local.Close()
	adapter := messaging.NewBrokerAdapter(local, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewScheduleNotifier(doctors, mailer, adapter, logger.Nop(), metrics.NewNop())
	require.NoError(t, n.Start(ctx))

	require.NoError(t, local.Publish(ctx, model.EventScheduleDeactivated, json.RawMessage(eventPayload(t, doctor.ID))))

	select {
	case subject := <-sent:
		assert.Equal(t, "Your consultation schedule was deactivated", subject)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
}

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// ScheduleEvents are the channels the notifier listens on.
var ScheduleEvents = []string{
	model.EventScheduleCreated,
	model.EventScheduleUpdated,
	model.EventScheduleActivated,
	model.EventScheduleDeactivated,
	model.EventScheduleDeleted,
}

type DoctorGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

// ScheduleNotifier e-mails a doctor whenever one of their schedules changes.
// Delivery is best effort.
type ScheduleNotifier struct {
	doctors DoctorGetter
	mailer  email.Service
	broker  messaging.MessageBroker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewScheduleNotifier(doctors DoctorGetter, mailer email.Service, broker messaging.MessageBroker, logger *logger.Logger, m *metrics.Metrics) *ScheduleNotifier {
	return &ScheduleNotifier{
		doctors: doctors,
		mailer:  mailer,
		broker:  broker,
		logger:  logger,
		metrics: m,
	}
}

// Start subscribes to every schedule event. Subscriptions end with ctx.
func (n *ScheduleNotifier) Start(ctx context.Context) error {
	for _, eventType := range ScheduleEvents {
		eventType := eventType
		err := n.broker.Subscribe(ctx, eventType, func(payload []byte) error {
			return n.Handle(ctx, eventType, payload)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
	}
	n.logger.Info("Schedule notifier started", "channels", len(ScheduleEvents))
	return nil
}

func (n *ScheduleNotifier) Handle(ctx context.Context, eventType string, payload []byte) error {
	var evt model.ScheduleEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		n.metrics.NotificationsSent.WithLabelValues("invalid").Inc()
		return fmt.Errorf("failed to decode %s payload: %w", eventType, err)
	}

	doctor, err := n.doctors.Get(ctx, evt.DoctorID)
	if err != nil {
		n.metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return fmt.Errorf("failed to load doctor %s: %w", evt.DoctorID, err)
	}

	subject, body := compose(eventType, doctor, &evt)
	if err := n.mailer.SendCustom(ctx, doctor.Email, subject, body); err != nil {
		n.metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return err
	}

	n.metrics.NotificationsSent.WithLabelValues("sent").Inc()
	n.logger.Debug("Schedule notification sent", "event_type", eventType, "doctor_id", doctor.ID.String())
	return nil
}

var verbs = map[string]string{
	model.EventScheduleCreated:     "added",
	model.EventScheduleUpdated:     "changed",
	model.EventScheduleActivated:   "activated",
	model.EventScheduleDeactivated: "deactivated",
	model.EventScheduleDeleted:     "removed",
}

func compose(eventType string, doctor *model.Doctor, evt *model.ScheduleEvent) (string, string) {
	verb, ok := verbs[eventType]
	if !ok {
		verb = "changed"
	}

	days := make([]string, len(evt.WorkingDays))
	for i, d := range evt.WorkingDays {
		days[i] = strings.ToUpper(string(d)[:1]) + string(d)[1:]
	}

	subject := fmt.Sprintf("Your consultation schedule was %s", verb)
	body := fmt.Sprintf(
		"Dear %s,\n\nA consultation schedule was %s by %s.\n\nDays: %s\nHours: %s - %s\nStatus: %s\n",
		doctor.Name,
		verb,
		evt.Actor,
		strings.Join(days, ", "),
		evt.StartTime,
		evt.EndTime,
		evt.Status,
	)
	return subject, body
}

// Package app builds the dependencies shared by the API and worker binaries.
package app

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/config"
	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// Repositories is the storage layer selected by storage.driver.
type Repositories struct {
	Schedules   repository.ScheduleRepository
	Doctors     repository.DoctorRepository
	Departments repository.DepartmentRepository
	Audit       repository.AuditRepository
	Outbox      repository.OutboxRepository
	Checks      map[string]health.Check

	db *sqlx.DB
}

func OpenRepositories(cfg *config.Config) (*Repositories, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		return &Repositories{
			Schedules:   memory.NewScheduleRepository(),
			Doctors:     memory.NewDoctorRepository(),
			Departments: memory.NewDepartmentRepository(),
			Audit:       memory.NewAuditRepository(),
			Outbox:      memory.NewOutboxRepository(),
			Checks:      map[string]health.Check{},
		}, nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Schedules:   postgres.NewScheduleRepository(db),
		Doctors:     postgres.NewDoctorRepository(db),
		Departments: postgres.NewDepartmentRepository(db),
		Audit:       postgres.NewAuditRepository(db),
		Outbox:      postgres.NewOutboxRepository(db),
		Checks:      map[string]health.Check{"database": db.PingContext},
		db:          db,
	}, nil
}

// InProcess reports whether the outbox lives in this process only, in which
// case the API has to run the outbox processor itself.
func (r *Repositories) InProcess() bool {
	return r.db == nil
}

func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// NewBroker connects to Redis when it is enabled and falls back to the
// in-process broker otherwise.
func NewBroker(cfg *config.Config, zl zerolog.Logger, m *metrics.Metrics) (messaging.Broker, health.Check, error) {
	if !cfg.Redis.Enabled {
		return messaging.NewLocalBroker(), nil, nil
	}

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), zl, m)
	if err != nil {
		return nil, nil, err
	}
	var check health.Check
	if p, ok := broker.(interface{ Ping(context.Context) error }); ok {
		check = p.Ping
	}
	return broker, check, nil
}

func NewMailer(cfg config.EmailConfig, zl zerolog.Logger) email.Service {
	if !cfg.Enabled {
		return email.NewLogService(zl)
	}
	return email.NewSMTPService(email.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

// SetupLogging builds the process logger and installs it as the zerolog
// global and context default.
func SetupLogging(cfg config.LogConfig, service string) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		Format:     cfg.Format,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}).WithFields(map[string]interface{}{"service": service})

	log.Logger = *l.Zerolog()
	zerolog.DefaultContextLogger = &log.Logger
	return l
}

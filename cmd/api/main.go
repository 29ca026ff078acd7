package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/config"
	"github.com/jwalitptl/hms-api/internal/app"
	auditHandler "github.com/jwalitptl/hms-api/internal/handler/audit"
	departmentHandler "github.com/jwalitptl/hms-api/internal/handler/department"
	doctorHandler "github.com/jwalitptl/hms-api/internal/handler/doctor"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	scheduleHandler "github.com/jwalitptl/hms-api/internal/handler/schedule"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/router"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	departmentService "github.com/jwalitptl/hms-api/internal/service/department"
	doctorService "github.com/jwalitptl/hms-api/internal/service/doctor"
	eventService "github.com/jwalitptl/hms-api/internal/service/event"
	"github.com/jwalitptl/hms-api/internal/service/notification"
	scheduleService "github.com/jwalitptl/hms-api/internal/service/schedule"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/validator"
	"github.com/jwalitptl/hms-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	appLogger := app.SetupLogging(cfg.Log, "hms-api")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("hms", registry)

	repos, err := app.OpenRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer repos.Close()

	// Services
	v := validator.New()
	auditor := audit.NewService(repos.Audit)
	events := eventService.NewEventService(repos.Outbox)

	deptSvc := departmentService.NewService(repos.Departments, repos.Doctors, v, auditor, events)
	doctorSvc := doctorService.NewService(repos.Doctors, repos.Departments, repos.Schedules, v, auditor, events, m,
		doctorService.CacheConfig{TTL: cfg.Cache.DefaultTTL, CleanupInterval: cfg.Cache.CleanupInterval})
	scheduleSvc := scheduleService.NewService(repos.Schedules, doctorSvc, v, auditor, events, m)

	// HTTP
	var jwtSvc auth.JWTService
	if cfg.Auth.Enabled {
		jwtSvc = auth.NewJWTService(cfg.Auth.Secret, cfg.Auth.Issuer, time.Duration(cfg.Auth.ExpiryHours)*time.Hour)
	} else {
		log.Warn().Msg("authentication disabled; every request acts as admin")
	}

	checks := map[string]health.Check{}
	for name, check := range repos.Checks {
		checks[name] = check
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without Postgres nothing else can drain the outbox, so the API does it.
	if repos.InProcess() {
		broker, brokerCheck, err := app.NewBroker(cfg, log.Logger, m)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create message broker")
		}
		defer broker.Close()
		if brokerCheck != nil {
			checks["redis"] = brokerCheck
		}

		processor, err := worker.NewOutboxProcessor(repos.Outbox, broker, cfg.Outbox.ToWorkerConfig(), appLogger, m)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid outbox configuration")
		}
		go processor.Start(ctx)

		notifier := notification.NewScheduleNotifier(
			repos.Doctors,
			app.NewMailer(cfg.Email, log.Logger),
			messaging.NewBrokerAdapter(broker, log.Logger),
			appLogger,
			m,
		)
		if err := notifier.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start schedule notifier")
		}
	}

	routerCfg := router.RouterConfig{
		Mode: cfg.Server.Mode,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  cfg.CORS.AllowedMethods,
			AllowHeaders:  cfg.CORS.AllowedHeaders,
			ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.HeaderXRequestID},
			MaxAge:        86400,
		},
		Timeout:       cfg.Server.WriteTimeout,
		MetricsPrefix: "hms_http",
		Registerer:    registry,
		Gatherer:      registry,
		Logger:        log.Logger,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(checks),
		routerCfg,
		scheduleHandler.NewHandler(scheduleSvc, v),
		doctorHandler.NewHandler(doctorSvc),
		departmentHandler.NewHandler(deptSvc),
		auditHandler.NewHandler(auditor),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/config"
	"github.com/jwalitptl/hms-api/internal/app"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	promhandler "github.com/jwalitptl/hms-api/internal/handler/prometheus"
	"github.com/jwalitptl/hms-api/internal/service/notification"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/worker"
)

func setupHealthServer(port int, checks map[string]health.Check, gatherer prometheus.Gatherer) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine.Group(""))
	promhandler.New(gatherer).RegisterRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatal().Str("storage", cfg.Storage.Driver).Msg("The worker needs postgres storage; memory mode runs the outbox inside the API")
	}

	gin.SetMode(gin.ReleaseMode)
	workerLogger := app.SetupLogging(cfg.Log, "hms-worker")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("hms", registry)

	repos, err := app.OpenRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repos.Close()

	broker, brokerCheck, err := app.NewBroker(cfg, log.Logger, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create message broker")
	}
	defer broker.Close()

	checks := map[string]health.Check{}
	for name, check := range repos.Checks {
		checks[name] = check
	}
	if brokerCheck != nil {
		checks["redis"] = brokerCheck
	}

	processor, err := worker.NewOutboxProcessor(repos.Outbox, broker, cfg.Outbox.ToWorkerConfig(), workerLogger, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid outbox configuration")
	}
	cleanup := worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.RetentionPeriod, cfg.Outbox.CleanupInterval, workerLogger, m)
	notifier := notification.NewScheduleNotifier(
		repos.Doctors,
		app.NewMailer(cfg.Email, log.Logger),
		messaging.NewBrokerAdapter(broker, log.Logger),
		workerLogger,
		m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := notifier.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start schedule notifier")
	}

	srv := setupHealthServer(cfg.Worker.HealthPort, checks, registry)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Health check server forced to shutdown")
	}
}

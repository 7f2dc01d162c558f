package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/internal/email"
	"github.com/salesdeck/crm-api/internal/repository/postgres"
	"github.com/salesdeck/crm-api/internal/service/automation"
	notificationService "github.com/salesdeck/crm-api/internal/service/notification"
	"github.com/salesdeck/crm-api/internal/worker"
	"github.com/salesdeck/crm-api/pkg/logger"
	"github.com/salesdeck/crm-api/pkg/metrics"
	redisBroker "github.com/salesdeck/crm-api/pkg/messaging/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker config")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: os.Stdout})

	db, err := postgres.NewDB(cfg.Database())
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewBroker(redisBroker.Config{URL: cfg.RedisURL}, appLogger.Zerolog())
	if err != nil {
		appLogger.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	dealRepo := postgres.NewDealRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	activityRepo := postgres.NewActivityRepository(baseRepo)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)

	emailSvc := email.NewService(cfg.SMTP(), appLogger)
	notificationSvc := notificationService.NewService(notificationRepo, broker, appLogger)

	m := metrics.New("crm_worker")
	engine := automation.NewEngine(
		db,
		dealRepo,
		userRepo,
		activityRepo,
		notificationSvc,
		emailSvc,
		cfg.Automation(),
		appLogger,
		m,
	)

	scheduler := worker.NewScheduler(appLogger, m)
	scheduler.Register("lead_assignment", cfg.AssignmentInterval, engine.AssignLeads)
	scheduler.Register("stale_escalation", cfg.StaleCheckInterval, engine.EscalateStale)
	scheduler.Register("follow_up_reminders", cfg.FollowUpInterval, engine.SendFollowUpReminders)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down worker")
		cancel()
	}()

	appLogger.Info("automation worker started")
	scheduler.Start(ctx)
}

func setupHealthCheck(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}

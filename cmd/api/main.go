package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/internal/email"
	"github.com/salesdeck/crm-api/internal/handler"
	activityHandler "github.com/salesdeck/crm-api/internal/handler/activity"
	companyHandler "github.com/salesdeck/crm-api/internal/handler/company"
	contactHandler "github.com/salesdeck/crm-api/internal/handler/contact"
	dealHandler "github.com/salesdeck/crm-api/internal/handler/deal"
	notificationHandler "github.com/salesdeck/crm-api/internal/handler/notification"
	trackingHandler "github.com/salesdeck/crm-api/internal/handler/tracking"
	userHandler "github.com/salesdeck/crm-api/internal/handler/user"
	workflowHandler "github.com/salesdeck/crm-api/internal/handler/workflow"
	"github.com/salesdeck/crm-api/internal/middleware"
	"github.com/salesdeck/crm-api/internal/repository/postgres"
	"github.com/salesdeck/crm-api/internal/router"
	activityService "github.com/salesdeck/crm-api/internal/service/activity"
	companyService "github.com/salesdeck/crm-api/internal/service/company"
	contactService "github.com/salesdeck/crm-api/internal/service/contact"
	dealService "github.com/salesdeck/crm-api/internal/service/deal"
	notificationService "github.com/salesdeck/crm-api/internal/service/notification"
	scoringService "github.com/salesdeck/crm-api/internal/service/scoring"
	trackingService "github.com/salesdeck/crm-api/internal/service/tracking"
	userService "github.com/salesdeck/crm-api/internal/service/user"
	workflowService "github.com/salesdeck/crm-api/internal/service/workflow"
	"github.com/salesdeck/crm-api/pkg/auth"
	"github.com/salesdeck/crm-api/pkg/logger"
	redisBroker "github.com/salesdeck/crm-api/pkg/messaging/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: os.Stdout})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewBroker(redisBroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	dealRepo := postgres.NewDealRepository(baseRepo)
	activityRepo := postgres.NewActivityRepository(baseRepo)
	workflowRepo := postgres.NewWorkflowRuleRepository(baseRepo)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	companyRepo := postgres.NewCompanyRepository(baseRepo)
	contactRepo := postgres.NewContactRepository(baseRepo)
	emailRepo := postgres.NewEmailRepository(baseRepo)

	// Services
	emailSvc := email.NewService(cfg.SMTP, appLogger)
	notificationSvc := notificationService.NewService(notificationRepo, broker, appLogger)
	scoringSvc := scoringService.NewService(dealRepo, activityRepo, appLogger)
	workflowSvc := workflowService.NewService(workflowRepo, notificationSvc, appLogger)
	dealSvc := dealService.NewService(dealRepo, activityRepo, userRepo, workflowSvc, notificationSvc, emailSvc, appLogger)
	activitySvc := activityService.NewService(activityRepo, dealRepo, appLogger)
	userSvc := userService.NewService(userRepo)
	companySvc := companyService.NewService(companyRepo)
	contactSvc := contactService.NewService(contactRepo)
	trackingSvc := trackingService.NewService(emailRepo, activityRepo, scoringSvc, emailSvc, cfg.Server.BaseURL, appLogger)

	// Middleware and handlers
	verifier := auth.NewJWTVerifier(cfg.Auth.TokenSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	r := router.NewRouter(
		authMiddleware,
		dealHandler.NewHandler(dealSvc, scoringSvc),
		contactHandler.NewHandler(contactSvc, scoringSvc),
		companyHandler.NewHandler(companySvc),
		userHandler.NewHandler(userSvc),
		workflowHandler.NewHandler(workflowSvc),
		notificationHandler.NewHandler(notificationSvc),
		activityHandler.NewHandler(activitySvc),
		trackingHandler.NewHandler(trackingSvc, appLogger),
		handler.NewHandler(),
		router.Config{
			TrackRateLimit: rate.Limit(50),
			TrackRateBurst: 100,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "crm_api",
			Logger:         appLogger,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

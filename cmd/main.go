package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/fitfun/competition-system/config"
	"github.com/fitfun/competition-system/db"
	"github.com/fitfun/competition-system/handlers"
	"github.com/fitfun/competition-system/live"
	"github.com/fitfun/competition-system/repositories"
	api "github.com/fitfun/competition-system/routes"
	"github.com/fitfun/competition-system/services"
	"github.com/fitfun/competition-system/storage"
)

const schedulerInterval = 30 * time.Second // How often the lifecycle sweep runs

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("photo storage is not configured, uploads disabled")
	}

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	measurementRepo := repositories.NewPostgresMeasurementRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	testimonialRepo := repositories.NewPostgresTestimonialRepository(dbConn)
	logger.Info("repositories initialized")

	clock := services.NewSystemClock()
	notificationService := services.NewNotificationService(notificationRepo, wsHub, logger)
	emailService := services.NewEmailService(cfg)
	lifecycleService := services.NewLifecycleService(
		dbConn,
		competitionRepo,
		memberRepo,
		measurementRepo,
		userRepo,
		notificationService,
		emailService,
		clock,
		logger,
	)
	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecretKey), clock)
	membershipService := services.NewMembershipService(
		competitionRepo,
		memberRepo,
		measurementRepo,
		userRepo,
		lifecycleService,
		notificationService,
		clock,
	)
	userService := services.NewUserService(dbConn, userRepo, membershipService, uploader, logger)
	competitionService := services.NewCompetitionService(
		competitionRepo,
		memberRepo,
		measurementRepo,
		userRepo,
		lifecycleService,
		uploader,
		clock,
	)
	measurementService := services.NewMeasurementService(
		measurementRepo,
		competitionRepo,
		memberRepo,
		userRepo,
		lifecycleService,
		clock,
	)
	testimonialService := services.NewTestimonialService(testimonialRepo, competitionRepo, memberRepo)
	adminService := services.NewAdminService(userRepo, competitionRepo, measurementRepo, uploader)
	logger.Info("services initialized")

	// Lifecycle sweep: transitions overdue competitions and publishes
	// results without waiting for a read to trigger it.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("lifecycle scheduler started", slog.Duration("interval", schedulerInterval))

		if err := lifecycleService.SyncAll(context.Background()); err != nil {
			logger.Error("scheduler: initial sweep failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := lifecycleService.SyncAll(context.Background()); err != nil {
				logger.Error("scheduler: sweep failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, emailService, logger)
	userHandler := handlers.NewUserHandler(userService)
	competitionHandler := handlers.NewCompetitionHandler(competitionService, membershipService)
	measurementHandler := handlers.NewMeasurementHandler(measurementService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	testimonialHandler := handlers.NewTestimonialHandler(testimonialService)
	adminHandler := handlers.NewAdminHandler(adminService, userService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.PublicURL, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		userHandler,
		competitionHandler,
		measurementHandler,
		notificationHandler,
		testimonialHandler,
		adminHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

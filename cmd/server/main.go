package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/wellness-app/internal/api"
	"alcyxob/wellness-app/internal/config"
	"alcyxob/wellness-app/internal/library"
	"alcyxob/wellness-app/internal/logging"
	"alcyxob/wellness-app/internal/metrics"
	"alcyxob/wellness-app/internal/repository/mongo"
	"alcyxob/wellness-app/internal/service"
	"alcyxob/wellness-app/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// @title Wellness Protocol API
// @version 1.0
// @description API for enrolling in training protocols and tracking the generated session plans.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   true,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	logrus.Info("starting wellness app server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logrus.Fatalf("could not connect to MongoDB: %s", err)
	}
	defer func() {
		logrus.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logrus.Errorf("failed to disconnect MongoDB: %s", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logrus.Infof("connected to database %s", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			logrus.Errorf("index creation finished with errors: %s", err)
			return
		}
		logrus.Info("index creation completed")
	}()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			logrus.Fatalf("failed to initialize S3 storage: %s", err)
		}
	} else {
		logrus.Warn("s3 bucket not configured, plan export disabled")
	}

	// --- Metrics ---
	var metricsManager *metrics.Manager
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager(cfg.Metrics.Namespace, "server", reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	} else {
		// Services always record, the values are just not exposed
		metricsManager = metrics.NewManager(cfg.Metrics.Namespace, "server", prometheus.NewRegistry())
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	protocolRepo := mongo.NewMongoProtocolRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	protocolService := service.NewProtocolService(protocolRepo)
	completionHandler := service.NewCompletionHandler(historyRepo, metricsManager)
	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		protocolRepo,
		completionHandler,
		fileStorage,
		metricsManager,
		service.AssignmentServiceConfig{DefaultSessionsPerWeek: cfg.Planner.DefaultSessionsPerWeek},
	)
	checkInService := service.NewCheckInService(checkInRepo, assignmentRepo)

	// --- Seed curated protocols ---
	protocols, err := library.Load(cfg.Library.Path)
	if err != nil {
		logrus.Fatalf("failed to load protocol library: %s", err)
	}
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := protocolService.SeedLibrary(seedCtx, protocols); err != nil {
		logrus.Errorf("protocol library seeded with errors: %s", err)
	}
	seedCancel()

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:       authService,
		Protocols:  protocolService,
		Assignment: assignmentService,
		CheckIns:   checkInService,
	}, metricsManager, metricsHandler)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("ListenAndServe: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.Errorf("server forced to shutdown: %s", err)
	}
	logrus.Info("server exiting")
}

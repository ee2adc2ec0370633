package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabworks/workshop-api/docs"
	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/config"
	"github.com/fabworks/workshop-api/internal/database"
	"github.com/fabworks/workshop-api/internal/erp"
	"github.com/fabworks/workshop-api/internal/http/handler"
	"github.com/fabworks/workshop-api/internal/http/middleware"
	"github.com/fabworks/workshop-api/internal/http/router"
	"github.com/fabworks/workshop-api/internal/jobs"
	"github.com/fabworks/workshop-api/internal/logger"
	"github.com/fabworks/workshop-api/internal/mail"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/fabworks/workshop-api/internal/storage"
	"go.uber.org/zap"
)

// @title Workshop API
// @version 1.0
// @description Project dashboard API for a fabrication workshop: assignments, progress, revenue allocation

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// Load full configuration with secrets.
	// Development reads environment variables; staging and production pull
	// from Azure Key Vault.
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema is managed by goose migrations; AutoMigrate keeps local
	// development databases in sync without running them.
	if cfg.App.Environment == "development" || cfg.App.Environment == "local" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// ERP connection is optional and read-only; the app continues without it
	var erpClient *erp.Client
	if cfg.ERP.Enabled {
		erpClient, err = erp.NewClient(&cfg.ERP, log)
		if err != nil {
			log.Warn("ERP connection failed, continuing without it", zap.Error(err))
		}
	} else {
		log.Info("ERP not configured, skipping")
	}

	mailer := mail.NewMailer(&cfg.Mail, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	workLogRepo := repository.NewWorkLogRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Services
	notificationService := service.NewNotificationService(notificationRepo, userRepo, mailer, log)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, projectRepo, userRepo, taskRepo, activityRepo,
		notificationService, service.SeedTaskTiming(cfg.Workflow.SeedTasksOn), log, db,
	)
	projectService := service.NewProjectService(
		projectRepo, userRepo, taskRepo, attachmentRepo, activityRepo,
		assignmentService, notificationService, log, db,
	)
	workLogService := service.NewWorkLogService(workLogRepo, projectRepo, materialRepo, activityRepo, log, db)
	revenueService := service.NewRevenueService(budgetRepo, projectRepo, activityRepo, log, db)
	taskService := service.NewTaskService(taskRepo, projectRepo, activityRepo, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, projectRepo, fileStorage, cfg.Storage.MaxUploadSizeMB, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(userRepo, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, log)
	workLogHandler := handler.NewWorkLogHandler(workLogService, log)
	revenueHandler := handler.NewRevenueHandler(revenueService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, cfg.Storage.MaxUploadSizeMB, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		erpClient,
		authMiddleware,
		rateLimiter,
		authHandler,
		projectHandler,
		assignmentHandler,
		workLogHandler,
		revenueHandler,
		taskHandler,
		notificationHandler,
		attachmentHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterAssignmentReminderJob(
			scheduler, assignmentService, log,
			cfg.Jobs.AssignmentReminderCron, cfg.Workflow.ReminderAfterDuration(),
		); err != nil {
			log.Error("Failed to register assignment reminder job", zap.Error(err))
		}

		if erpClient.IsEnabled() {
			if err := jobs.RegisterERPCostSyncJob(
				scheduler, erpClient, projectRepo, log, cfg.Jobs.ERPCostSyncCron,
			); err != nil {
				log.Error("Failed to register ERP cost sync job", zap.Error(err))
			}
		}

		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := erpClient.Close(); err != nil {
			log.Warn("Error closing ERP connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

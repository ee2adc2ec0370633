package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/config"
	"github.com/fabworks/workshop-api/internal/database"
	"github.com/fabworks/workshop-api/internal/erp"
	"github.com/fabworks/workshop-api/internal/http/handler"
	"github.com/fabworks/workshop-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/fabworks/workshop-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	erpClient           *erp.Client
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	projectHandler      *handler.ProjectHandler
	assignmentHandler   *handler.AssignmentHandler
	workLogHandler      *handler.WorkLogHandler
	revenueHandler      *handler.RevenueHandler
	taskHandler         *handler.TaskHandler
	notificationHandler *handler.NotificationHandler
	attachmentHandler   *handler.AttachmentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	erpClient *erp.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	assignmentHandler *handler.AssignmentHandler,
	workLogHandler *handler.WorkLogHandler,
	revenueHandler *handler.RevenueHandler,
	taskHandler *handler.TaskHandler,
	notificationHandler *handler.NotificationHandler,
	attachmentHandler *handler.AttachmentHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		erpClient:           erpClient,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		projectHandler:      projectHandler,
		assignmentHandler:   assignmentHandler,
		workLogHandler:      workLogHandler,
		revenueHandler:      revenueHandler,
		taskHandler:         taskHandler,
		notificationHandler: notificationHandler,
		attachmentHandler:   attachmentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database readiness probe with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		body := map[string]interface{}{
			"status":  "healthy",
			"service": "database",
		}
		if sqlDB, err := rt.db.DB(); err == nil {
			stats := sqlDB.Stats()
			body["stats"] = map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	})

	// Combined readiness check over all dependencies
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		// ERP is optional; a degraded ERP never fails readiness
		checks["erp"] = rt.erpClient.HealthCheck(r.Context())

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		// Auth
		r.Get("/auth/me", rt.authHandler.Me)

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", rt.projectHandler.List)
			r.Post("/", rt.projectHandler.Create)
			r.Get("/{id}", rt.projectHandler.GetByID)
			r.Put("/{id}/status", rt.projectHandler.UpdateStatus)
			r.Post("/{id}/complete", rt.projectHandler.Complete)
			r.Get("/{id}/activities", rt.projectHandler.ListActivities)

			// Assignments
			r.Post("/{id}/assignments", rt.projectHandler.AssignFabricator)
			r.Get("/{id}/assignments", rt.assignmentHandler.ListByProject)

			// Work logs and materials
			r.Post("/{id}/worklogs", rt.workLogHandler.Record)
			r.Get("/{id}/worklogs", rt.workLogHandler.ListByProject)
			r.Get("/{id}/materials", rt.workLogHandler.ListMaterials)

			// Revenue allocations
			r.Get("/{id}/revenue/allocations", rt.revenueHandler.ListByProject)
			r.Put("/{id}/revenue/allocations", rt.revenueHandler.Allocate)
			r.Delete("/{id}/revenue/allocations", rt.revenueHandler.ClearAll)
			r.Post("/{id}/revenue/split-equally", rt.revenueHandler.SplitEqually)

			// Tasks
			r.Get("/{id}/tasks", rt.taskHandler.ListByProject)
			r.Post("/{id}/tasks", rt.taskHandler.Create)

			// Attachments
			r.Get("/{id}/attachments", rt.attachmentHandler.ListByProject)
			r.Post("/{id}/attachments", rt.attachmentHandler.Upload)
		})

		// Assignments
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/pending", rt.assignmentHandler.ListPending)
			r.Get("/history", rt.assignmentHandler.ListHistory)
			r.Get("/{id}", rt.assignmentHandler.GetByID)
			r.Post("/{id}/accept", rt.assignmentHandler.Accept)
			r.Post("/{id}/decline", rt.assignmentHandler.Decline)
		})

		// Tasks
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/mine", rt.taskHandler.ListOwn)
			r.Put("/{id}/status", rt.taskHandler.UpdateStatus)
		})

		// Work logs
		r.Get("/worklogs/mine", rt.workLogHandler.ListOwn)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notificationHandler.List)
			r.Get("/unread-count", rt.notificationHandler.UnreadCount)
			r.Post("/{id}/read", rt.notificationHandler.MarkRead)
			r.Post("/read-all", rt.notificationHandler.MarkAllRead)
		})

		// Attachments
		r.Route("/attachments", func(r chi.Router) {
			r.Get("/{id}", rt.attachmentHandler.Download)
			r.Delete("/{id}", rt.attachmentHandler.Delete)
		})
	})

	return r
}

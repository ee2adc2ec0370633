package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/config"
	"github.com/fabworks/workshop-api/internal/database"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/mail"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory SQLite database per test
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive for the
	// duration of the test
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type testEnv struct {
	db               *gorm.DB
	projectRepo      *repository.ProjectRepository
	assignmentRepo   *repository.AssignmentRepository
	taskRepo         *repository.TaskRepository
	workLogRepo      *repository.WorkLogRepository
	budgetRepo       *repository.BudgetRepository
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository

	notifications *service.NotificationService
	assignments   *service.AssignmentService
	projects      *service.ProjectService
	workLogs      *service.WorkLogService
	revenue       *service.RevenueService
	tasks         *service.TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)
	log := zap.NewNop()

	env := &testEnv{
		db:               db,
		projectRepo:      repository.NewProjectRepository(db),
		assignmentRepo:   repository.NewAssignmentRepository(db),
		taskRepo:         repository.NewTaskRepository(db),
		workLogRepo:      repository.NewWorkLogRepository(db),
		budgetRepo:       repository.NewBudgetRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		userRepo:         repository.NewUserRepository(db),
	}
	activityRepo := repository.NewActivityRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	mailer := mail.NewMailer(&config.MailConfig{Enabled: false}, log)

	env.notifications = service.NewNotificationService(env.notificationRepo, env.userRepo, mailer, log)
	env.assignments = service.NewAssignmentService(
		env.assignmentRepo, env.projectRepo, env.userRepo, env.taskRepo,
		activityRepo, env.notifications, service.SeedTasksOnInvite, log, db,
	)
	env.projects = service.NewProjectService(
		env.projectRepo, env.userRepo, env.taskRepo, attachmentRepo,
		activityRepo, env.assignments, env.notifications, log, db,
	)
	env.workLogs = service.NewWorkLogService(env.workLogRepo, env.projectRepo, materialRepo, activityRepo, log, db)
	env.revenue = service.NewRevenueService(env.budgetRepo, env.projectRepo, activityRepo, log, db)
	env.tasks = service.NewTaskService(env.taskRepo, env.projectRepo, activityRepo, log)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string, role domain.UserRole) *domain.User {
	user := &domain.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@workshop.test", uuid.NewString()),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) createProject(t *testing.T, name string, status domain.ProjectStatus, supervisor *domain.User) *domain.Project {
	project := &domain.Project{
		Name:      name,
		Status:    status,
		Priority:  domain.PriorityMedium,
		StartDate: time.Now().UTC(),
		Revenue:   500000,
		CreatedBy: supervisor.ID,
	}
	project.SupervisorID = &supervisor.ID
	require.NoError(t, e.projectRepo.Create(context.Background(), project))
	return project
}

// addMember makes a fabricator a project member directly, bypassing the
// invitation flow
func (e *testEnv) addMember(t *testing.T, projectID, fabricatorID uuid.UUID) {
	require.NoError(t, e.projectRepo.AddFabricator(context.Background(), nil, projectID, fabricatorID))
}

func ctxFor(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Role:        user.Role,
	})
}

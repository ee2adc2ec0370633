package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/mapper"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService handles manual task management on projects. Seed tasks created
// by the assignment protocol flow through the same table but are created by
// the AssignmentService.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	projectRepo  *repository.ProjectRepository
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo *repository.TaskRepository,
	projectRepo *repository.ProjectRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Create creates a task on a project. Admins and the owning supervisor may
// create tasks; the optional assignee must be a project member.
func (s *TaskService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) {
		return nil, ErrPermissionDenied
	}

	if req.AssignedTo != nil && !project.HasFabricator(*req.AssignedTo) {
		return nil, fmt.Errorf("%w: assignee is not a member of the project", ErrValidation)
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	task := &domain.Task{
		ProjectID:      projectID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatusPending,
		Priority:       priority,
		AssignedTo:     req.AssignedTo,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		CreatedBy:      userCtx.UserID,
	}

	if err := s.taskRepo.Create(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if task.AssignedTo != nil {
		s.logActivity(ctx, projectID, "Task created",
			fmt.Sprintf("Task %q created and assigned", task.Title))
	} else {
		s.logActivity(ctx, projectID, "Task created",
			fmt.Sprintf("Task %q created", task.Title))
	}

	s.logger.Info("task created",
		zap.String("taskID", task.ID.String()),
		zap.String("projectID", projectID.String()),
	)

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// UpdateStatus updates a task's status and optionally its actual hours. The
// assignee, the task creator, and project managers may update it.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID uuid.UUID, req *domain.UpdateTaskStatusRequest) (*domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrValidation, req.Status)
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	allowed := task.CreatedBy == userCtx.UserID ||
		(task.AssignedTo != nil && *task.AssignedTo == userCtx.UserID)
	if !allowed {
		project, err := s.projectRepo.GetByID(ctx, task.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
		if !userCtx.CanManageProject(project) {
			return nil, ErrPermissionDenied
		}
	}

	task.Status = req.Status
	if req.ActualHours != nil {
		task.ActualHours = *req.ActualHours
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logActivity(ctx, task.ProjectID, "Task status changed",
		fmt.Sprintf("Task %q moved to %s", task.Title, task.Status))

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// ListByProject returns a project's tasks
func (s *TaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) && !project.HasFabricator(userCtx.UserID) {
		return nil, ErrPermissionDenied
	}

	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return toTaskDTOs(tasks), nil
}

// ListOwn returns tasks assigned to the calling user
func (s *TaskService) ListOwn(ctx context.Context) ([]domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	tasks, err := s.taskRepo.ListByAssignee(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return toTaskDTOs(tasks), nil
}

func (s *TaskService) logActivity(ctx context.Context, projectID uuid.UUID, title, body string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return
	}

	activity := &domain.Activity{
		TargetType:   domain.ActivityTargetProject,
		TargetID:     projectID,
		Title:        title,
		Body:         body,
		ActivityType: domain.ActivityTypeSystem,
		OccurredAt:   time.Now().UTC(),
		ActorID:      &userCtx.UserID,
		ActorName:    userCtx.DisplayName,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to log activity", zap.Error(err))
	}
}

func toTaskDTOs(tasks []domain.Task) []domain.TaskDTO {
	dtos := make([]domain.TaskDTO, 0, len(tasks))
	for i := range tasks {
		dtos = append(dtos, mapper.ToTaskDTO(&tasks[i]))
	}
	return dtos
}

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

// ProjectService coordinates the project workflow: creation under the
// direct-assign or manual-assign policy, fabricator invitations (delegated to
// the AssignmentService), explicit status transitions, and completion.
type ProjectService struct {
	projectRepo    *repository.ProjectRepository
	userRepo       *repository.UserRepository
	taskRepo       *repository.TaskRepository
	attachmentRepo *repository.AttachmentRepository
	activityRepo   *repository.ActivityRepository
	assignments    *AssignmentService
	notifications  *NotificationService
	logger         *zap.Logger
	db             *gorm.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	userRepo *repository.UserRepository,
	taskRepo *repository.TaskRepository,
	attachmentRepo *repository.AttachmentRepository,
	activityRepo *repository.ActivityRepository,
	assignments *AssignmentService,
	notifications *NotificationService,
	logger *zap.Logger,
	db *gorm.DB,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		taskRepo:       taskRepo,
		attachmentRepo: attachmentRepo,
		activityRepo:   activityRepo,
		assignments:    assignments,
		notifications:  notifications,
		logger:         logger,
		db:             db,
	}
}

// Create creates a new project under one of two policies. With ManualAssign
// set, the project starts in the created status with no members and
// fabricators join only through the invite/accept protocol. Otherwise any
// listed fabricators become members immediately, the project starts in the
// assigned status, and no Assignment records are created for them.
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleSupervisor) {
		return nil, ErrPermissionDenied
	}

	if req.ManualAssign && len(req.FabricatorIDs) > 0 {
		return nil, fmt.Errorf("%w: manual-assign projects cannot list initial fabricators", ErrValidation)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date must not precede start date", ErrValidation)
	}

	if req.SupervisorID != nil {
		supervisor, err := s.userRepo.GetByID(ctx, *req.SupervisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: supervisor not found", ErrValidation)
			}
			return nil, fmt.Errorf("failed to verify supervisor: %w", err)
		}
		if supervisor.Role != domain.RoleSupervisor && supervisor.Role != domain.RoleAdmin {
			return nil, fmt.Errorf("%w: user %s cannot supervise projects", ErrValidation, supervisor.ID)
		}
	}

	for _, fabricatorID := range req.FabricatorIDs {
		fabricator, err := s.userRepo.GetByID(ctx, fabricatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: fabricator %s not found", ErrValidation, fabricatorID)
			}
			return nil, fmt.Errorf("failed to verify fabricator: %w", err)
		}
		if fabricator.Role != domain.RoleFabricator || !fabricator.IsActive {
			return nil, fmt.Errorf("%w: user %s is not an active fabricator", ErrValidation, fabricatorID)
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	status := domain.ProjectStatusCreated
	if !req.ManualAssign && len(req.FabricatorIDs) > 0 {
		status = domain.ProjectStatusAssigned
	}

	project := &domain.Project{
		Name:             req.Name,
		Description:      req.Description,
		ClientName:       req.ClientName,
		Priority:         priority,
		Status:           status,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Budget:           req.Budget,
		Revenue:          req.Revenue,
		DocumentationURL: req.DocumentationURL,
		SupervisorID:     req.SupervisorID,
		CreatedBy:        userCtx.UserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		for _, fabricatorID := range req.FabricatorIDs {
			if err := s.projectRepo.AddFabricator(ctx, tx, project.ID, fabricatorID); err != nil {
				return fmt.Errorf("failed to add fabricator: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, project.ID, "Project created",
		fmt.Sprintf("Project %q created with status %s", project.Name, project.Status))

	if len(req.FabricatorIDs) > 0 {
		if _, err := s.notifications.CreateBatch(ctx, req.FabricatorIDs,
			domain.NotificationTypeProjectUpdate,
			"Assigned to new project",
			fmt.Sprintf("You have been assigned to project %q", project.Name),
			"project", &project.ID,
		); err != nil {
			s.logger.Warn("failed to notify assigned fabricators", zap.Error(err))
		}
	}

	s.logger.Info("project created",
		zap.String("projectID", project.ID.String()),
		zap.String("status", string(project.Status)),
		zap.Int("fabricators", len(req.FabricatorIDs)),
	)

	updated, err := s.projectRepo.GetByID(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	dto := mapper.ToProjectDTO(updated)
	return &dto, nil
}

// AssignFabricator invites a fabricator to the project through the assignment
// protocol and returns the updated project together with the seeded tasks
func (s *ProjectService) AssignFabricator(ctx context.Context, projectID uuid.UUID, req *domain.AssignFabricatorRequest) (*domain.AssignFabricatorResponse, error) {
	return s.assignments.Invite(ctx, projectID, req)
}

// GetByID returns a project with its pending assignments, tasks and
// attachments. Clients see only their linked project; fabricators see
// projects they are invited to or members of.
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectWithDetailsDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByIDWithAssignments(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if !s.canView(ctx, userCtx, project) {
		return nil, ErrPermissionDenied
	}

	tasks, err := s.taskRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	attachments, err := s.attachmentRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	dto := mapper.ToProjectWithDetailsDTO(project, tasks, attachments)
	return &dto, nil
}

// List returns a paginated project listing. Non-admin callers are narrowed to
// their own projects: supervisors to projects they own, fabricators to
// projects they are members of, clients to their linked project.
func (s *ProjectService) List(ctx context.Context, page, pageSize int, filters *repository.ProjectFilters) (*domain.PaginatedResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if filters == nil {
		filters = &repository.ProjectFilters{}
	}

	switch {
	case userCtx.IsAdmin():
		// No narrowing
	case userCtx.IsSupervisor():
		filters.SupervisorID = &userCtx.UserID
	case userCtx.IsFabricator():
		filters.FabricatorID = &userCtx.UserID
	default:
		return nil, ErrPermissionDenied
	}

	projects, total, err := s.projectRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	dtos := make([]domain.ProjectDTO, 0, len(projects))
	for i := range projects {
		dtos = append(dtos, mapper.ToProjectDTO(&projects[i]))
	}

	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateStatus drives an explicit project status transition. Legacy status
// names are accepted and mapped to the canonical enumeration.
func (s *ProjectService) UpdateStatus(ctx context.Context, id uuid.UUID, statusName string) (*domain.ProjectDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	status, valid := domain.ParseProjectStatus(statusName)
	if !valid {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, statusName)
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) {
		return nil, ErrPermissionDenied
	}

	if project.Status == status {
		dto := mapper.ToProjectDTO(project)
		return &dto, nil
	}
	if !project.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, project.Status, status)
	}

	previous := project.Status
	project.Status = status
	if status == domain.ProjectStatusCompleted {
		project.Progress = 100
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, id, "Project status changed",
		fmt.Sprintf("Status changed from %s to %s", previous, status))
	s.notifyMembers(ctx, project, domain.NotificationTypeStatusChange,
		fmt.Sprintf("Project %q status changed", project.Name),
		fmt.Sprintf("Status moved from %s to %s", previous, status))

	s.logger.Info("project status changed",
		zap.String("projectID", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// MarkComplete completes the project: status=completed and progress=100
// regardless of prior progress. Members are notified of the change.
func (s *ProjectService) MarkComplete(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) {
		return nil, ErrPermissionDenied
	}
	if !project.Status.CanTransitionTo(domain.ProjectStatusCompleted) {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidTransition, project.Status)
	}

	previous := project.Status
	project.Status = domain.ProjectStatusCompleted
	project.Progress = 100

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to complete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, id, "Project completed",
		fmt.Sprintf("Project %q marked complete (was %s)", project.Name, previous))
	s.notifyMembers(ctx, project, domain.NotificationTypeStatusChange,
		"Project completed",
		fmt.Sprintf("Project %q has been marked complete", project.Name))

	s.logger.Info("project completed", zap.String("projectID", id.String()))

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// ListActivities returns the project's activity timeline
func (s *ProjectService) ListActivities(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
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
	if !s.canView(ctx, userCtx, project) {
		return nil, ErrPermissionDenied
	}

	activities, err := s.activityRepo.ListByTarget(ctx, domain.ActivityTargetProject, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	dtos := make([]domain.ActivityDTO, 0, len(activities))
	for i := range activities {
		dtos = append(dtos, mapper.ToActivityDTO(&activities[i]))
	}
	return dtos, nil
}

// canView reports whether the caller may read the project at all
func (s *ProjectService) canView(ctx context.Context, userCtx *auth.UserContext, project *domain.Project) bool {
	if userCtx.CanManageProject(project) {
		return true
	}
	if userCtx.IsFabricator() {
		if project.HasFabricator(userCtx.UserID) {
			return true
		}
		for _, a := range project.Assignments {
			if a.FabricatorID == userCtx.UserID {
				return true
			}
		}
		return false
	}
	if userCtx.Role == domain.RoleClient {
		// Clients are linked to exactly one project via their user record
		user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
		if err != nil {
			return false
		}
		return user.ClientProjectID != nil && *user.ClientProjectID == project.ID
	}
	return userCtx.IsSupervisor()
}

// notifyMembers fans a notification out to all current project members
func (s *ProjectService) notifyMembers(ctx context.Context, project *domain.Project, notifType domain.NotificationType, title, message string) {
	recipients := make([]uuid.UUID, 0, len(project.Fabricators)+1)
	for _, f := range project.Fabricators {
		recipients = append(recipients, f.FabricatorID)
	}
	if project.SupervisorID != nil {
		recipients = append(recipients, *project.SupervisorID)
	}
	if len(recipients) == 0 {
		return
	}
	if _, err := s.notifications.CreateBatch(ctx, recipients, notifType, title, message, "project", &project.ID); err != nil {
		s.logger.Warn("failed to notify project members",
			zap.String("projectID", project.ID.String()),
			zap.Error(err),
		)
	}
}

// logActivity creates an activity log entry for a project
func (s *ProjectService) logActivity(ctx context.Context, projectID uuid.UUID, title, body string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		s.logger.Warn("no user context for activity logging")
		return
	}

	activity := &domain.Activity{
		TargetType:   domain.ActivityTargetProject,
		TargetID:     projectID,
		Title:        title,
		Body:         body,
		ActivityType: domain.ActivityTypeStatusChange,
		OccurredAt:   time.Now().UTC(),
		ActorID:      &userCtx.UserID,
		ActorName:    userCtx.DisplayName,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to log activity", zap.Error(err))
	}
}

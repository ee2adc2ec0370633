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

// Seed tasks created for every invited fabricator
const (
	seedTaskPlanningTitle   = "Project Planning Review"
	seedTaskMaterialTitle   = "Material Assessment"
	seedTaskPlanningDueDays = 7
	seedTaskMaterialDueDays = 10
)

// SeedTaskTiming controls when the starter tasks are created for an invited
// fabricator
type SeedTaskTiming string

const (
	// SeedTasksOnInvite creates the tasks when the invitation is sent
	SeedTasksOnInvite SeedTaskTiming = "invite"
	// SeedTasksOnAccept defers task creation until the fabricator accepts
	SeedTasksOnAccept SeedTaskTiming = "accept"
)

// AssignmentService implements the fabricator assignment protocol: a
// supervisor or admin invites a fabricator, the fabricator accepts or
// declines, and project membership and status follow. Accepted and declined
// assignments are write-once; at most one terminal transition ever succeeds
// for a given assignment, enforced by a guarded single-row update.
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	projectRepo    *repository.ProjectRepository
	userRepo       *repository.UserRepository
	taskRepo       *repository.TaskRepository
	activityRepo   *repository.ActivityRepository
	notifications  *NotificationService
	seedTaskTiming SeedTaskTiming
	logger         *zap.Logger
	db             *gorm.DB
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	projectRepo *repository.ProjectRepository,
	userRepo *repository.UserRepository,
	taskRepo *repository.TaskRepository,
	activityRepo *repository.ActivityRepository,
	notifications *NotificationService,
	seedTaskTiming SeedTaskTiming,
	logger *zap.Logger,
	db *gorm.DB,
) *AssignmentService {
	if seedTaskTiming != SeedTasksOnAccept {
		seedTaskTiming = SeedTasksOnInvite
	}
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		taskRepo:       taskRepo,
		activityRepo:   activityRepo,
		notifications:  notifications,
		seedTaskTiming: seedTaskTiming,
		logger:         logger,
		db:             db,
	}
}

// Invite invites a fabricator to a project. The caller must be an admin or
// the project's owning supervisor. A pending Assignment is recorded, the
// project moves to pending_assignment, and (in the default configuration) two
// starter tasks are seeded for the fabricator. The invitation notification is
// sent after commit and never fails the operation.
func (s *AssignmentService) Invite(ctx context.Context, projectID uuid.UUID, req *domain.AssignFabricatorRequest) (*domain.AssignFabricatorResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByIDWithAssignments(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if !userCtx.CanManageProject(project) {
		return nil, ErrPermissionDenied
	}

	fabricator, err := s.userRepo.GetByID(ctx, req.FabricatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get fabricator: %w", err)
	}
	if fabricator.Role != domain.RoleFabricator || !fabricator.IsActive {
		return nil, fmt.Errorf("%w: user %s is not an active fabricator", ErrValidation, fabricator.ID)
	}

	if project.HasFabricator(req.FabricatorID) {
		return nil, fmt.Errorf("%w: fabricator is already a member of the project", ErrConflict)
	}
	for _, a := range project.Assignments {
		if a.FabricatorID == req.FabricatorID && a.Status == domain.AssignmentStatusPending {
			return nil, fmt.Errorf("%w: fabricator already has a pending invitation", ErrConflict)
		}
	}

	if !project.Status.CanTransitionTo(domain.ProjectStatusPendingAssignment) {
		return nil, fmt.Errorf("%w: cannot invite fabricators while project is %s", ErrInvalidTransition, project.Status)
	}

	assignment := &domain.Assignment{
		ProjectID:    projectID,
		FabricatorID: req.FabricatorID,
		AssignedBy:   userCtx.UserID,
		AssignedAt:   time.Now().UTC(),
		Status:       domain.AssignmentStatusPending,
		Message:      req.Message,
	}

	var tasks []domain.Task
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.assignmentRepo.Create(ctx, tx, assignment); err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		project.Status = domain.ProjectStatusPendingAssignment
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project status: %w", err)
		}

		if s.seedTaskTiming == SeedTasksOnInvite {
			created, err := s.seedTasks(ctx, tx, projectID, req.FabricatorID, userCtx.UserID)
			if err != nil {
				return err
			}
			tasks = created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, projectID, "Fabricator invited",
		fmt.Sprintf("%s invited to project %s", fabricator.Name, project.Name))

	if _, err := s.notifications.CreateForUser(ctx, req.FabricatorID,
		domain.NotificationTypeAssignmentInvite,
		"New project invitation",
		fmt.Sprintf("You have been invited to join project %q by %s", project.Name, userCtx.DisplayName),
		"assignment", &assignment.ID,
	); err != nil {
		s.logger.Warn("failed to send invitation notification",
			zap.String("assignmentID", assignment.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("fabricator invited",
		zap.String("projectID", projectID.String()),
		zap.String("fabricatorID", req.FabricatorID.String()),
		zap.String("assignmentID", assignment.ID.String()),
	)

	project.Assignments = append(project.Assignments, *assignment)
	projectDTO := mapper.ToProjectDTO(project)
	resp := &domain.AssignFabricatorResponse{Project: &projectDTO}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, mapper.ToTaskDTO(&tasks[i]))
	}
	return resp, nil
}

// Accept records the fabricator's acceptance of a pending assignment. The
// fabricator becomes a project member and the project moves to planning.
// Responding to an already resolved assignment reports ErrAlreadyResolved and
// mutates nothing.
func (s *AssignmentService) Accept(ctx context.Context, assignmentID uuid.UUID, response string) (*domain.ProjectDTO, error) {
	return s.respond(ctx, assignmentID, domain.AssignmentStatusAccepted, response)
}

// Decline records the fabricator's refusal of a pending assignment. Project
// membership and status are left untouched.
func (s *AssignmentService) Decline(ctx context.Context, assignmentID uuid.UUID, response string) (*domain.ProjectDTO, error) {
	return s.respond(ctx, assignmentID, domain.AssignmentStatusDeclined, response)
}

func (s *AssignmentService) respond(ctx context.Context, assignmentID uuid.UUID, status domain.AssignmentStatus, response string) (*domain.ProjectDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	// Only the invited fabricator may respond
	if assignment.FabricatorID != userCtx.UserID {
		return nil, ErrPermissionDenied
	}

	if assignment.Status.IsTerminal() {
		return nil, ErrAlreadyResolved
	}

	project, err := s.projectRepo.GetByID(ctx, assignment.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Guarded single-row update: succeeds for exactly one concurrent
		// responder, everyone else sees the assignment already resolved.
		resolved, err := s.assignmentRepo.Resolve(ctx, tx, assignmentID, status, response, now)
		if err != nil {
			return fmt.Errorf("failed to resolve assignment: %w", err)
		}
		if !resolved {
			return ErrAlreadyResolved
		}

		if status != domain.AssignmentStatusAccepted {
			return nil
		}

		if err := s.projectRepo.AddFabricator(ctx, tx, project.ID, assignment.FabricatorID); err != nil {
			return fmt.Errorf("failed to add project member: %w", err)
		}

		if project.Status.CanTransitionTo(domain.ProjectStatusPlanning) {
			project.Status = domain.ProjectStatusPlanning
		}
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project status: %w", err)
		}

		if s.seedTaskTiming == SeedTasksOnAccept {
			if _, err := s.seedTasks(ctx, tx, project.ID, assignment.FabricatorID, assignment.AssignedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	assignment.Status = status
	assignment.Response = response
	assignment.RespondedAt = &now

	s.notifyAssigner(ctx, assignment, project, userCtx.DisplayName)

	verb := "accepted"
	if status == domain.AssignmentStatusDeclined {
		verb = "declined"
	}
	s.logActivity(ctx, project.ID, "Invitation "+verb,
		fmt.Sprintf("%s %s the invitation to project %s", userCtx.DisplayName, verb, project.Name))

	s.logger.Info("assignment resolved",
		zap.String("assignmentID", assignmentID.String()),
		zap.String("status", string(status)),
		zap.String("projectID", project.ID.String()),
	)

	// Re-read so the returned project reflects the new membership
	updated, err := s.projectRepo.GetByIDWithAssignments(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	dto := mapper.ToProjectDTO(updated)
	return &dto, nil
}

// GetByID returns one assignment. Fabricators see only their own; admins and
// the project's supervisor see all of the project's assignments.
func (s *AssignmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if assignment.FabricatorID != userCtx.UserID && !userCtx.IsAdmin() {
		if assignment.Project == nil || !userCtx.CanManageProject(assignment.Project) {
			return nil, ErrPermissionDenied
		}
	}

	dto := mapper.ToAssignmentDTO(assignment)
	return &dto, nil
}

// ListPendingForCurrentUser returns the caller's pending invitations
func (s *AssignmentService) ListPendingForCurrentUser(ctx context.Context) ([]domain.AssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	assignments, err := s.assignmentRepo.ListPendingByFabricator(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending assignments: %w", err)
	}
	return toAssignmentDTOs(assignments), nil
}

// ListHistoryForCurrentUser returns the caller's resolved invitations,
// disjoint from the pending list
func (s *AssignmentService) ListHistoryForCurrentUser(ctx context.Context) ([]domain.AssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	assignments, err := s.assignmentRepo.ListHistoryByFabricator(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment history: %w", err)
	}
	return toAssignmentDTOs(assignments), nil
}

// ListByProject returns all assignments on a project for its managers
func (s *AssignmentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.AssignmentDTO, error) {
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

	assignments, err := s.assignmentRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project assignments: %w", err)
	}
	return toAssignmentDTOs(assignments), nil
}

// RemindStalePending re-notifies fabricators whose invitations have been
// pending longer than the threshold. Used by the reminder job; failures on
// individual reminders are logged and skipped.
func (s *AssignmentService) RemindStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.assignmentRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale assignments: %w", err)
	}

	reminded := 0
	for i := range stale {
		a := &stale[i]
		projectName := "a project"
		if a.Project != nil {
			projectName = fmt.Sprintf("project %q", a.Project.Name)
		}
		if _, err := s.notifications.CreateForUser(ctx, a.FabricatorID,
			domain.NotificationTypeAssignmentReminder,
			"Invitation awaiting your response",
			fmt.Sprintf("Your invitation to %s from %s is still pending", projectName, a.AssignedAt.Format("2006-01-02")),
			"assignment", &a.ID,
		); err != nil {
			s.logger.Warn("failed to send assignment reminder",
				zap.String("assignmentID", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		reminded++
	}
	return reminded, nil
}

// seedTasks creates the two starter tasks for an invited fabricator
func (s *AssignmentService) seedTasks(ctx context.Context, tx *gorm.DB, projectID, fabricatorID, createdBy uuid.UUID) ([]domain.Task, error) {
	now := time.Now().UTC()
	planningDue := now.AddDate(0, 0, seedTaskPlanningDueDays)
	materialDue := now.AddDate(0, 0, seedTaskMaterialDueDays)

	tasks := []domain.Task{
		{
			ProjectID:      projectID,
			Title:          seedTaskPlanningTitle,
			Description:    "Review the project plan, drawings and timeline",
			Status:         domain.TaskStatusPending,
			Priority:       domain.PriorityHigh,
			AssignedTo:     &fabricatorID,
			DueDate:        &planningDue,
			EstimatedHours: 8,
			CreatedBy:      createdBy,
		},
		{
			ProjectID:      projectID,
			Title:          seedTaskMaterialTitle,
			Description:    "Assess required materials and confirm availability",
			Status:         domain.TaskStatusPending,
			Priority:       domain.PriorityMedium,
			AssignedTo:     &fabricatorID,
			DueDate:        &materialDue,
			EstimatedHours: 4,
			CreatedBy:      createdBy,
		},
	}

	for i := range tasks {
		if err := s.taskRepo.Create(ctx, tx, &tasks[i]); err != nil {
			return nil, fmt.Errorf("failed to create seed task %q: %w", tasks[i].Title, err)
		}
	}
	return tasks, nil
}

// notifyAssigner tells the inviting supervisor/admin about the response
func (s *AssignmentService) notifyAssigner(ctx context.Context, assignment *domain.Assignment, project *domain.Project, responderName string) {
	notifType := domain.NotificationTypeAssignmentAccepted
	verb := "accepted"
	if assignment.Status == domain.AssignmentStatusDeclined {
		notifType = domain.NotificationTypeAssignmentDeclined
		verb = "declined"
	}

	message := fmt.Sprintf("%s %s the invitation to project %q", responderName, verb, project.Name)
	if assignment.Response != "" {
		message = fmt.Sprintf("%s: %q", message, assignment.Response)
	}

	if _, err := s.notifications.CreateForUser(ctx, assignment.AssignedBy,
		notifType,
		fmt.Sprintf("Invitation %s", verb),
		message,
		"assignment", &assignment.ID,
	); err != nil {
		s.logger.Warn("failed to notify assigner",
			zap.String("assignmentID", assignment.ID.String()),
			zap.Error(err),
		)
	}
}

// logActivity creates an activity log entry for a project
func (s *AssignmentService) logActivity(ctx context.Context, projectID uuid.UUID, title, body string) {
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

func toAssignmentDTOs(assignments []domain.Assignment) []domain.AssignmentDTO {
	dtos := make([]domain.AssignmentDTO, 0, len(assignments))
	for i := range assignments {
		dtos = append(dtos, mapper.ToAssignmentDTO(&assignments[i]))
	}
	return dtos
}

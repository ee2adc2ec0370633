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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkLogService records fabricator work and aggregates project progress.
// Work-log entries are append-only; project progress only ever moves up and
// is clamped to 100.
type WorkLogService struct {
	workLogRepo  *repository.WorkLogRepository
	projectRepo  *repository.ProjectRepository
	materialRepo *repository.MaterialRepository
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
	db           *gorm.DB
}

// NewWorkLogService creates a new WorkLogService
func NewWorkLogService(
	workLogRepo *repository.WorkLogRepository,
	projectRepo *repository.ProjectRepository,
	materialRepo *repository.MaterialRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *WorkLogService {
	return &WorkLogService{
		workLogRepo:  workLogRepo,
		projectRepo:  projectRepo,
		materialRepo: materialRepo,
		activityRepo: activityRepo,
		logger:       logger,
		db:           db,
	}
}

// RecordWork appends a work-log entry for the calling fabricator and folds
// its progress contribution into the project. Excess contribution is clamped
// at 100, never rejected. Reaching 100 does not complete the project; that is
// a separate explicit action.
func (s *WorkLogService) RecordWork(ctx context.Context, projectID uuid.UUID, req *domain.RecordWorkRequest) (*domain.RecordWorkResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if req.HoursWorked <= 0 {
		return nil, fmt.Errorf("%w: hours worked must be greater than zero", ErrValidation)
	}
	if req.ProgressPercent < 0 || req.ProgressPercent > 100 {
		return nil, fmt.Errorf("%w: progress contribution must be between 0 and 100", ErrValidation)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	// Only accepted project members log work
	if !userCtx.IsFabricator() || !project.HasFabricator(userCtx.UserID) {
		return nil, ErrPermissionDenied
	}

	if project.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidTransition, project.Status)
	}

	workLog := &domain.WorkLog{
		ProjectID:       projectID,
		FabricatorID:    userCtx.UserID,
		Date:            req.Date,
		HoursWorked:     req.HoursWorked,
		Description:     req.Description,
		ProgressPercent: req.ProgressPercent,
		Materials:       datatypes.NewJSONSlice(req.Materials),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.workLogRepo.Create(ctx, tx, workLog); err != nil {
			return fmt.Errorf("failed to create work log: %w", err)
		}

		if len(req.Materials) > 0 {
			materials := make([]domain.Material, 0, len(req.Materials))
			for _, name := range req.Materials {
				if name == "" {
					continue
				}
				materials = append(materials, domain.Material{
					ProjectID: projectID,
					WorkLogID: &workLog.ID,
					Name:      name,
				})
			}
			if err := s.materialRepo.CreateBatch(ctx, tx, materials); err != nil {
				return fmt.Errorf("failed to register materials: %w", err)
			}
		}

		progress := project.Progress + req.ProgressPercent
		if progress > 100 {
			progress = 100
		}
		project.Progress = progress

		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, projectID, "Work recorded",
		fmt.Sprintf("%s logged %.1f hours (+%d%% progress)", userCtx.DisplayName, req.HoursWorked, req.ProgressPercent))

	s.logger.Info("work recorded",
		zap.String("projectID", projectID.String()),
		zap.String("fabricatorID", userCtx.UserID.String()),
		zap.Float64("hours", req.HoursWorked),
		zap.Int("progress", project.Progress),
	)

	workLogDTO := mapper.ToWorkLogDTO(workLog)
	projectDTO := mapper.ToProjectDTO(project)
	return &domain.RecordWorkResponse{
		WorkLog: &workLogDTO,
		Project: &projectDTO,
	}, nil
}

// ListByProject returns a project's work logs for its managers and members
func (s *WorkLogService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.WorkLogDTO, error) {
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

	workLogs, err := s.workLogRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	return toWorkLogDTOs(workLogs), nil
}

// ListOwn returns the calling fabricator's work logs across projects
func (s *WorkLogService) ListOwn(ctx context.Context) ([]domain.WorkLogDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	workLogs, err := s.workLogRepo.ListByFabricator(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	return toWorkLogDTOs(workLogs), nil
}

// ListMaterialsByProject returns the material rows registered through the
// project's work logs
func (s *WorkLogService) ListMaterialsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.MaterialDTO, error) {
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

	materials, err := s.materialRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	dtos := make([]domain.MaterialDTO, 0, len(materials))
	for i := range materials {
		dtos = append(dtos, mapper.ToMaterialDTO(&materials[i]))
	}
	return dtos, nil
}

func (s *WorkLogService) logActivity(ctx context.Context, projectID uuid.UUID, title, body string) {
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

func toWorkLogDTOs(workLogs []domain.WorkLog) []domain.WorkLogDTO {
	dtos := make([]domain.WorkLogDTO, 0, len(workLogs))
	for i := range workLogs {
		dtos = append(dtos, mapper.ToWorkLogDTO(&workLogs[i]))
	}
	return dtos
}

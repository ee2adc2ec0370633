package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/mapper"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RevenueService splits a project's revenue across its fabricators. The sum
// of allocations never exceeds the project's total revenue; a batch that
// would is rejected whole with the computed excess.
type RevenueService struct {
	budgetRepo   *repository.BudgetRepository
	projectRepo  *repository.ProjectRepository
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
	db           *gorm.DB
}

// NewRevenueService creates a new RevenueService
func NewRevenueService(
	budgetRepo *repository.BudgetRepository,
	projectRepo *repository.ProjectRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *RevenueService {
	return &RevenueService{
		budgetRepo:   budgetRepo,
		projectRepo:  projectRepo,
		activityRepo: activityRepo,
		logger:       logger,
		db:           db,
	}
}

// Allocate replaces revenue allocations for exactly the fabricators in the
// batch. Existing cost figures (allocatedAmount, spentAmount) on touched rows
// are preserved and allocations of fabricators not in the batch are left
// alone. The post-state sum across all budgets must stay within
// Project.Revenue or the whole batch is rejected with OverAllocationError.
func (s *RevenueService) Allocate(ctx context.Context, projectID uuid.UUID, req *domain.AllocateRevenueRequest) (*domain.ProjectDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if len(req.Allocations) == 0 {
		return nil, fmt.Errorf("%w: allocations must not be empty", ErrValidation)
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

	for fabricatorID, amount := range req.Allocations {
		if amount < 0 {
			return nil, fmt.Errorf("%w: allocation for %s must not be negative", ErrValidation, fabricatorID)
		}
		if !project.HasFabricator(fabricatorID) {
			return nil, fmt.Errorf("%w: %s is not a member of the project", ErrValidation, fabricatorID)
		}
	}

	// Post-state total: batch amounts plus untouched existing allocations
	var total float64
	for _, amount := range req.Allocations {
		total += amount
	}
	for i := range project.Budgets {
		if _, touched := req.Allocations[project.Budgets[i].FabricatorID]; !touched {
			total += project.Budgets[i].AllocatedRevenue
		}
	}
	if total > project.Revenue {
		return nil, &OverAllocationError{
			ProjectID: projectID,
			Revenue:   project.Revenue,
			Requested: total,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for fabricatorID, amount := range req.Allocations {
			if err := s.budgetRepo.UpsertRevenue(ctx, tx, projectID, fabricatorID, amount, ""); err != nil {
				return fmt.Errorf("failed to store allocation: %w", err)
			}
		}
		// Version bump serializes concurrent allocation batches
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, projectID, "Revenue allocated",
		fmt.Sprintf("Revenue allocations updated for %d fabricator(s), total %.2f of %.2f", len(req.Allocations), total, project.Revenue))

	s.logger.Info("revenue allocated",
		zap.String("projectID", projectID.String()),
		zap.Int("fabricators", len(req.Allocations)),
		zap.Float64("total", total),
	)

	return s.reload(ctx, projectID)
}

// SplitEqually divides the project's revenue evenly across all current
// members, truncated to 2 decimals. The rounding remainder is assigned to no
// one; drift stays under 0.01 per fabricator.
func (s *RevenueService) SplitEqually(ctx context.Context, projectID uuid.UUID) (*domain.ProjectDTO, error) {
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
	if len(project.Fabricators) == 0 {
		return nil, fmt.Errorf("%w: project has no fabricators to split revenue across", ErrValidation)
	}

	share := math.Trunc(project.Revenue/float64(len(project.Fabricators))*100) / 100

	allocations := make(map[uuid.UUID]float64, len(project.Fabricators))
	for _, f := range project.Fabricators {
		allocations[f.FabricatorID] = share
	}

	return s.Allocate(ctx, projectID, &domain.AllocateRevenueRequest{Allocations: allocations})
}

// ClearAll zeroes every revenue allocation on the project
func (s *RevenueService) ClearAll(ctx context.Context, projectID uuid.UUID) (*domain.ProjectDTO, error) {
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

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.budgetRepo.ZeroAllRevenue(ctx, tx, projectID); err != nil {
			return fmt.Errorf("failed to clear allocations: %w", err)
		}
		if err := s.projectRepo.UpdateWithVersion(ctx, tx, project); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, projectID, "Revenue allocations cleared", "All fabricator revenue allocations set to zero")

	return s.reload(ctx, projectID)
}

// ListByProject returns the project's fabricator budgets for its managers
func (s *RevenueService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.FabricatorBudgetDTO, error) {
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

	budgets, err := s.budgetRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	dtos := make([]domain.FabricatorBudgetDTO, 0, len(budgets))
	for i := range budgets {
		dtos = append(dtos, mapper.ToFabricatorBudgetDTO(&budgets[i]))
	}
	return dtos, nil
}

func (s *RevenueService) reload(ctx context.Context, projectID uuid.UUID) (*domain.ProjectDTO, error) {
	updated, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	dto := mapper.ToProjectDTO(updated)
	return &dto, nil
}

func (s *RevenueService) logActivity(ctx context.Context, projectID uuid.UUID, title, body string) {
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

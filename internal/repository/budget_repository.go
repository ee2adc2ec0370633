package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"gorm.io/gorm"
)

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.FabricatorBudget, error) {
	var budgets []domain.FabricatorBudget
	err := r.db.WithContext(ctx).
		Preload("Fabricator").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&budgets).Error
	return budgets, err
}

// UpsertRevenue creates or updates the budget row for one fabricator, setting
// only the revenue allocation and optional description. Existing cost fields
// (allocated_amount, spent_amount) are preserved on update.
func (r *BudgetRepository) UpsertRevenue(ctx context.Context, tx *gorm.DB, projectID, fabricatorID uuid.UUID, allocatedRevenue float64, description string) error {
	if tx == nil {
		tx = r.db
	}
	var existing domain.FabricatorBudget
	err := tx.WithContext(ctx).
		Where("project_id = ? AND fabricator_id = ?", projectID, fabricatorID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.WithContext(ctx).Create(&domain.FabricatorBudget{
			ProjectID:        projectID,
			FabricatorID:     fabricatorID,
			AllocatedRevenue: allocatedRevenue,
			Description:      description,
		}).Error
	}

	updates := map[string]interface{}{"allocated_revenue": allocatedRevenue}
	if description != "" {
		updates["description"] = description
	}
	return tx.WithContext(ctx).Model(&existing).Updates(updates).Error
}

// ZeroAllRevenue sets the revenue allocation of every budget row on the
// project to zero.
func (r *BudgetRepository) ZeroAllRevenue(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&domain.FabricatorBudget{}).
		Where("project_id = ?", projectID).
		Update("allocated_revenue", 0).Error
}

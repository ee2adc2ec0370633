package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) CreateBatch(ctx context.Context, tx *gorm.DB, materials []domain.Material) error {
	if len(materials) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&materials).Error
}

func (r *MaterialRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Material, error) {
	var materials []domain.Material
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&materials).Error
	return materials, err
}

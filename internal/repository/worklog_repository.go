package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"gorm.io/gorm"
)

type WorkLogRepository struct {
	db *gorm.DB
}

func NewWorkLogRepository(db *gorm.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

func (r *WorkLogRepository) Create(ctx context.Context, tx *gorm.DB, workLog *domain.WorkLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(workLog).Error
}

func (r *WorkLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkLog, error) {
	var workLog domain.WorkLog
	err := r.db.WithContext(ctx).
		Preload("Fabricator").
		Where("id = ?", id).
		First(&workLog).Error
	if err != nil {
		return nil, err
	}
	return &workLog, nil
}

func (r *WorkLogRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.WorkLog, error) {
	var workLogs []domain.WorkLog
	err := r.db.WithContext(ctx).
		Preload("Fabricator").
		Where("project_id = ?", projectID).
		Order("date DESC, created_at DESC").
		Find(&workLogs).Error
	return workLogs, err
}

func (r *WorkLogRepository) ListByFabricator(ctx context.Context, fabricatorID uuid.UUID) ([]domain.WorkLog, error) {
	var workLogs []domain.WorkLog
	err := r.db.WithContext(ctx).
		Where("fabricator_id = ?", fabricatorID).
		Order("date DESC, created_at DESC").
		Find(&workLogs).Error
	return workLogs, err
}

// TotalHoursByProject sums recorded hours per project
func (r *WorkLogRepository) TotalHoursByProject(ctx context.Context, projectID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.WorkLog{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(hours_worked), 0)").
		Scan(&total).Error
	return total, err
}

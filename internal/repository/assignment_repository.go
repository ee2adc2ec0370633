package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"gorm.io/gorm"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, tx *gorm.DB, assignment *domain.Assignment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Fabricator").
		Preload("Project").
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Resolve moves a pending assignment to a terminal status as a single guarded
// UPDATE. The WHERE clause on status='pending' ensures at most one terminal
// transition ever succeeds for an assignment, regardless of concurrent
// callers. Returns false when the row was not pending (or does not exist).
func (r *AssignmentRepository) Resolve(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.AssignmentStatus, response string, respondedAt time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&domain.Assignment{}).
		Where("id = ? AND status = ?", id, domain.AssignmentStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"response":     response,
			"responded_at": respondedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPendingByFabricator returns a fabricator's open invitations, newest last
func (r *AssignmentRepository) ListPendingByFabricator(ctx context.Context, fabricatorID uuid.UUID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("fabricator_id = ? AND status = ?", fabricatorID, domain.AssignmentStatusPending).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// ListHistoryByFabricator returns a fabricator's resolved invitations.
// Together with ListPendingByFabricator this partitions the fabricator's
// assignments into two disjoint sets.
func (r *AssignmentRepository) ListHistoryByFabricator(ctx context.Context, fabricatorID uuid.UUID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("fabricator_id = ? AND status <> ?", fabricatorID, domain.AssignmentStatusPending).
		Order("responded_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Fabricator").
		Where("project_id = ?", projectID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// CountPendingByProject returns the number of unresolved invitations
func (r *AssignmentRepository) CountPendingByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Assignment{}).
		Where("project_id = ? AND status = ?", projectID, domain.AssignmentStatusPending).
		Count(&count).Error
	return count, err
}

// ListStalePending returns pending assignments older than the cutoff, for the
// reminder job.
func (r *AssignmentRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Fabricator").
		Where("status = ? AND assigned_at < ?", domain.AssignmentStatusPending, olderThan).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

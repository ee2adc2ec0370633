package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic-concurrency update loses
// the race against a concurrent writer.
var ErrVersionConflict = errors.New("project version conflict")

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Preload("Fabricators").
		Preload("Budgets").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByIDWithAssignments loads a project with assignments and attachments in
// addition to the standard relations.
func (r *ProjectRepository) GetByIDWithAssignments(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Preload("Fabricators").
		Preload("Budgets").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("assigned_at ASC")
		}).
		Preload("Attachments").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateWithVersion persists the project's mutable scalar fields guarded by
// the version column. The in-memory version must match the stored row; on
// success the stored version is incremented. ErrVersionConflict is returned
// when a concurrent writer got there first, with no fields changed.
func (r *ProjectRepository) UpdateWithVersion(ctx context.Context, tx *gorm.DB, project *domain.Project) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ? AND version = ?", project.ID, project.Version).
		Updates(map[string]interface{}{
			"name":              project.Name,
			"description":       project.Description,
			"client_name":       project.ClientName,
			"priority":          project.Priority,
			"status":            project.Status,
			"progress":          project.Progress,
			"start_date":        project.StartDate,
			"end_date":          project.EndDate,
			"budget":            project.Budget,
			"spent":             project.Spent,
			"revenue":           project.Revenue,
			"documentation_url": project.DocumentationURL,
			"supervisor_id":     project.SupervisorID,
			"version":           project.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	project.Version++
	return nil
}

// AddFabricator records project membership for a fabricator. The call is
// idempotent: the unique (project_id, fabricator_id) index rejects duplicates
// and the conflict is swallowed.
func (r *ProjectRepository) AddFabricator(ctx context.Context, tx *gorm.DB, projectID, fabricatorID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	var existing domain.ProjectFabricator
	err := tx.WithContext(ctx).
		Where("project_id = ? AND fabricator_id = ?", projectID, fabricatorID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.WithContext(ctx).Create(&domain.ProjectFabricator{
		ProjectID:    projectID,
		FabricatorID: fabricatorID,
	}).Error
}

// ProjectFilters holds optional list filters
type ProjectFilters struct {
	Status       *domain.ProjectStatus
	SupervisorID *uuid.UUID
	FabricatorID *uuid.UUID
	Priority     *domain.ProjectPriority
	Archived     *bool
}

func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, filters *ProjectFilters) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Project{}).
		Preload("Supervisor").
		Preload("Fabricators").
		Preload("Budgets")

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.SupervisorID != nil {
			query = query.Where("supervisor_id = ?", *filters.SupervisorID)
		}
		if filters.Priority != nil {
			query = query.Where("priority = ?", *filters.Priority)
		}
		if filters.FabricatorID != nil {
			query = query.Where(
				"id IN (SELECT project_id FROM project_fabricators WHERE fabricator_id = ?)",
				*filters.FabricatorID)
		}
		if filters.Archived != nil {
			if *filters.Archived {
				query = query.Where("status = ?", domain.ProjectStatusCompleted)
			} else {
				query = query.Where("status <> ?", domain.ProjectStatusCompleted)
			}
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error

	return projects, total, err
}

// ListActiveIDs returns the IDs of projects that are not in a terminal
// status, for the ERP cost sync job.
func (r *ProjectRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("status NOT IN ?", []domain.ProjectStatus{
			domain.ProjectStatusCompleted,
			domain.ProjectStatusCancelled,
		}).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateSpent overwrites the spent total for a project without touching the
// version column; the ERP sync job is the only writer of this field.
func (r *ProjectRepository) UpdateSpent(ctx context.Context, id uuid.UUID, spent float64) error {
	return r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Update("spent", spent).Error
}

package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ERPCostSyncJobName is the name of the ERP cost sync job
const ERPCostSyncJobName = "erp_cost_sync"

// defaultCostSyncTimeout bounds a single sync run
const defaultCostSyncTimeout = 10 * time.Minute

// CostSource defines the interface for reading booked cost totals from the
// ERP. The map is keyed by project reference (our project UUID as a string).
type CostSource interface {
	IsEnabled() bool
	ProjectCostTotals(ctx context.Context) (map[string]float64, error)
}

// ProjectSpentStore defines the repository surface the sync needs.
type ProjectSpentStore interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateSpent(ctx context.Context, id uuid.UUID, spent float64) error
}

// ERPCostSyncJob pulls booked cost totals from the ERP and updates the
// spent figure on every active project that has bookings.
type ERPCostSyncJob struct {
	erp      CostSource
	projects ProjectSpentStore
	logger   *zap.Logger
}

// NewERPCostSyncJob creates a new ERP cost sync job.
func NewERPCostSyncJob(erp CostSource, projects ProjectSpentStore, logger *zap.Logger) *ERPCostSyncJob {
	return &ERPCostSyncJob{
		erp:      erp,
		projects: projects,
		logger:   logger,
	}
}

// Run executes the cost sync. Called by the scheduler.
func (j *ERPCostSyncJob) Run() {
	if j.erp == nil || !j.erp.IsEnabled() {
		j.logger.Debug("ERP cost sync skipped, ERP not connected")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCostSyncTimeout)
	defer cancel()

	start := time.Now()

	totals, err := j.erp.ProjectCostTotals(ctx)
	if err != nil {
		j.logger.Error("ERP cost sync failed to fetch totals",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	ids, err := j.projects.ListActiveIDs(ctx)
	if err != nil {
		j.logger.Error("ERP cost sync failed to list projects",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	var updated, failed int
	for _, id := range ids {
		spent, ok := totals[id.String()]
		if !ok {
			continue
		}
		if err := j.projects.UpdateSpent(ctx, id, spent); err != nil {
			j.logger.Warn("failed to update project spent",
				zap.String("project_id", id.String()),
				zap.Error(err))
			failed++
			continue
		}
		updated++
	}

	j.logger.Info("ERP cost sync completed",
		zap.Int("projects_updated", updated),
		zap.Int("projects_failed", failed),
		zap.Int("erp_totals", len(totals)),
		zap.Duration("duration", time.Since(start)))
}

// RegisterERPCostSyncJob registers the cost sync job with the scheduler.
func RegisterERPCostSyncJob(scheduler *Scheduler, erp CostSource, projects ProjectSpentStore, logger *zap.Logger, cronExpr string) error {
	job := NewERPCostSyncJob(erp, projects, logger)
	return scheduler.AddJob(ERPCostSyncJobName, cronExpr, job.Run)
}

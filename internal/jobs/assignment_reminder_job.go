package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AssignmentReminderJobName is the name of the stale assignment reminder job
const AssignmentReminderJobName = "assignment_reminder"

// defaultReminderTimeout bounds a single reminder run
const defaultReminderTimeout = 5 * time.Minute

// AssignmentReminderService defines the interface for nudging fabricators
// with unanswered invitations. The interface keeps the job decoupled from
// the service package.
type AssignmentReminderService interface {
	// RemindStalePending sends a reminder notification for every pending
	// assignment older than the given age and returns how many were sent.
	RemindStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// AssignmentReminderJob reminds fabricators about pending invitations that
// have gone unanswered for longer than the configured threshold.
type AssignmentReminderJob struct {
	assignments AssignmentReminderService
	olderThan   time.Duration
	logger      *zap.Logger
}

// NewAssignmentReminderJob creates a new reminder job.
func NewAssignmentReminderJob(assignments AssignmentReminderService, olderThan time.Duration, logger *zap.Logger) *AssignmentReminderJob {
	return &AssignmentReminderJob{
		assignments: assignments,
		olderThan:   olderThan,
		logger:      logger,
	}
}

// Run executes the reminder job. Called by the scheduler.
func (j *AssignmentReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultReminderTimeout)
	defer cancel()

	start := time.Now()

	reminded, err := j.assignments.RemindStalePending(ctx, j.olderThan)
	if err != nil {
		j.logger.Error("assignment reminder job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("assignment reminder job completed",
		zap.Int("reminders_sent", reminded),
		zap.Duration("older_than", j.olderThan),
		zap.Duration("duration", time.Since(start)))
}

// RegisterAssignmentReminderJob registers the reminder job with the scheduler.
func RegisterAssignmentReminderJob(scheduler *Scheduler, assignments AssignmentReminderService, logger *zap.Logger, cronExpr string, olderThan time.Duration) error {
	job := NewAssignmentReminderJob(assignments, olderThan, logger)
	return scheduler.AddJob(AssignmentReminderJobName, cronExpr, job.Run)
}

package domain_test

import (
	"testing"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectStatus(t *testing.T) {
	tests := []struct {
		input string
		want  domain.ProjectStatus
		ok    bool
	}{
		// Canonical names map to themselves
		{"created", domain.ProjectStatusCreated, true},
		{"assigned", domain.ProjectStatusAssigned, true},
		{"pending_assignment", domain.ProjectStatusPendingAssignment, true},
		{"planning", domain.ProjectStatusPlanning, true},
		{"in_progress", domain.ProjectStatusInProgress, true},
		{"supervisor_review", domain.ProjectStatusSupervisorReview, true},
		{"admin_review", domain.ProjectStatusAdminReview, true},
		{"client_signoff", domain.ProjectStatusClientSignoff, true},
		{"completed", domain.ProjectStatusCompleted, true},
		{"cancelled", domain.ProjectStatusCancelled, true},
		{"on_hold", domain.ProjectStatusOnHold, true},

		// Legacy dashboard names
		{"0_Created", domain.ProjectStatusCreated, true},
		{"1_Assigned_to_FAB", domain.ProjectStatusAssigned, true},
		{"pending-assignment", domain.ProjectStatusPendingAssignment, true},
		{"in-progress", domain.ProjectStatusInProgress, true},
		{"review", domain.ProjectStatusSupervisorReview, true},
		{"2_Ready_for_Supervisor_Review", domain.ProjectStatusSupervisorReview, true},
		{"3_Ready_for_Admin_Review", domain.ProjectStatusAdminReview, true},
		{"4_Ready_for_Client_Signoff", domain.ProjectStatusClientSignoff, true},
		{"on-hold", domain.ProjectStatusOnHold, true},

		// Unknown values
		{"", "", false},
		{"IN_PROGRESS", "", false},
		{"5_Done", "", false},
		{"archived", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := domain.ParseProjectStatus(tt.input)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.ProjectStatusCompleted.IsTerminal())
	assert.True(t, domain.ProjectStatusCancelled.IsTerminal())

	for _, s := range []domain.ProjectStatus{
		domain.ProjectStatusCreated,
		domain.ProjectStatusAssigned,
		domain.ProjectStatusPendingAssignment,
		domain.ProjectStatusPlanning,
		domain.ProjectStatusInProgress,
		domain.ProjectStatusSupervisorReview,
		domain.ProjectStatusAdminReview,
		domain.ProjectStatusClientSignoff,
		domain.ProjectStatusOnHold,
	} {
		assert.False(t, s.IsTerminal(), "status %s", s)
	}
}

func TestProjectStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.ProjectStatus
		to   domain.ProjectStatus
		want bool
	}{
		{"created to pending assignment", domain.ProjectStatusCreated, domain.ProjectStatusPendingAssignment, true},
		{"created to assigned", domain.ProjectStatusCreated, domain.ProjectStatusAssigned, true},
		{"created skips ahead", domain.ProjectStatusCreated, domain.ProjectStatusInProgress, false},
		{"assigned to planning", domain.ProjectStatusAssigned, domain.ProjectStatusPlanning, true},
		{"pending assignment to planning", domain.ProjectStatusPendingAssignment, domain.ProjectStatusPlanning, true},
		{"planning back to pending assignment", domain.ProjectStatusPlanning, domain.ProjectStatusPendingAssignment, true},
		{"planning to in progress", domain.ProjectStatusPlanning, domain.ProjectStatusInProgress, true},
		{"in progress to supervisor review", domain.ProjectStatusInProgress, domain.ProjectStatusSupervisorReview, true},
		{"supervisor review rework", domain.ProjectStatusSupervisorReview, domain.ProjectStatusInProgress, true},
		{"supervisor review forward", domain.ProjectStatusSupervisorReview, domain.ProjectStatusAdminReview, true},
		{"admin review rework", domain.ProjectStatusAdminReview, domain.ProjectStatusSupervisorReview, true},
		{"admin review forward", domain.ProjectStatusAdminReview, domain.ProjectStatusClientSignoff, true},
		{"client signoff rework", domain.ProjectStatusClientSignoff, domain.ProjectStatusAdminReview, true},
		{"client signoff to completed", domain.ProjectStatusClientSignoff, domain.ProjectStatusCompleted, true},
		{"review chain cannot be skipped", domain.ProjectStatusInProgress, domain.ProjectStatusClientSignoff, false},
		{"no going back mid-flow", domain.ProjectStatusInProgress, domain.ProjectStatusPlanning, false},

		// Hold, cancel and complete are reachable from any working state
		{"cancel from created", domain.ProjectStatusCreated, domain.ProjectStatusCancelled, true},
		{"cancel from in progress", domain.ProjectStatusInProgress, domain.ProjectStatusCancelled, true},
		{"hold from planning", domain.ProjectStatusPlanning, domain.ProjectStatusOnHold, true},
		{"complete from in progress", domain.ProjectStatusInProgress, domain.ProjectStatusCompleted, true},
		{"complete from created", domain.ProjectStatusCreated, domain.ProjectStatusCompleted, true},

		// Resuming from hold
		{"resume to planning", domain.ProjectStatusOnHold, domain.ProjectStatusPlanning, true},
		{"resume to in progress", domain.ProjectStatusOnHold, domain.ProjectStatusInProgress, true},
		{"hold cannot resume to review", domain.ProjectStatusOnHold, domain.ProjectStatusSupervisorReview, false},

		// Terminal states are frozen
		{"completed is frozen", domain.ProjectStatusCompleted, domain.ProjectStatusInProgress, false},
		{"cancelled is frozen", domain.ProjectStatusCancelled, domain.ProjectStatusCreated, false},
		{"completed cannot be cancelled", domain.ProjectStatusCompleted, domain.ProjectStatusCancelled, false},

		// Identity transitions are always allowed
		{"same status", domain.ProjectStatusInProgress, domain.ProjectStatusInProgress, true},
		{"same terminal status", domain.ProjectStatusCompleted, domain.ProjectStatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAssignmentStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.AssignmentStatusPending.IsTerminal())
	assert.True(t, domain.AssignmentStatusAccepted.IsTerminal())
	assert.True(t, domain.AssignmentStatusDeclined.IsTerminal())
}

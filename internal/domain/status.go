package domain

// ProjectStatus represents the status of a project.
//
// The legacy dashboard used two incompatible naming schemes side by side
// ("planning"/"in-progress"/... and "0_Created"/"1_Assigned_to_FAB"/...).
// This is the single canonical enumeration; ParseProjectStatus maps legacy
// values onto it.
type ProjectStatus string

const (
	// ProjectStatusCreated is the initial state of a project flagged for
	// manual fabricator assignment.
	ProjectStatusCreated ProjectStatus = "created"
	// ProjectStatusAssigned is the initial state of a project created with
	// fabricators designated directly.
	ProjectStatusAssigned ProjectStatus = "assigned"
	// ProjectStatusPendingAssignment is the transient state while fabricator
	// invitations are outstanding.
	ProjectStatusPendingAssignment ProjectStatus = "pending_assignment"
	ProjectStatusPlanning          ProjectStatus = "planning"
	ProjectStatusInProgress        ProjectStatus = "in_progress"
	ProjectStatusSupervisorReview  ProjectStatus = "supervisor_review"
	ProjectStatusAdminReview       ProjectStatus = "admin_review"
	ProjectStatusClientSignoff     ProjectStatus = "client_signoff"
	ProjectStatusCompleted         ProjectStatus = "completed"
	ProjectStatusCancelled         ProjectStatus = "cancelled"
	ProjectStatusOnHold            ProjectStatus = "on_hold"
)

// legacyStatusNames maps status strings from the legacy dashboard onto the
// canonical enumeration. Both naming schemes observed in the old data appear
// here; canonical values map to themselves in ParseProjectStatus.
var legacyStatusNames = map[string]ProjectStatus{
	"0_Created":                    ProjectStatusCreated,
	"1_Assigned_to_FAB":            ProjectStatusAssigned,
	"pending-assignment":           ProjectStatusPendingAssignment,
	"in-progress":                  ProjectStatusInProgress,
	"review":                       ProjectStatusSupervisorReview,
	"2_Ready_for_Supervisor_Review": ProjectStatusSupervisorReview,
	"3_Ready_for_Admin_Review":     ProjectStatusAdminReview,
	"4_Ready_for_Client_Signoff":   ProjectStatusClientSignoff,
	"on-hold":                      ProjectStatusOnHold,
}

// ParseProjectStatus resolves a status string (canonical or legacy) to the
// canonical enumeration. The second return value is false for unknown values.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	if mapped, ok := legacyStatusNames[s]; ok {
		return mapped, true
	}
	status := ProjectStatus(s)
	if status.IsValid() {
		return status, true
	}
	return "", false
}

// IsValid checks if the ProjectStatus is a valid canonical enum value
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusCreated, ProjectStatusAssigned, ProjectStatusPendingAssignment,
		ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusSupervisorReview,
		ProjectStatusAdminReview, ProjectStatusClientSignoff, ProjectStatusCompleted,
		ProjectStatusCancelled, ProjectStatusOnHold:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a terminal state
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

// validStatusTransitions is the project state machine. on_hold is reachable
// from every non-terminal working state and resumes to any of them; cancelled
// is reachable from every non-terminal state.
var validStatusTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusCreated: {
		ProjectStatusPendingAssignment,
		ProjectStatusAssigned,
	},
	ProjectStatusAssigned: {
		ProjectStatusPendingAssignment,
		ProjectStatusPlanning,
	},
	ProjectStatusPendingAssignment: {
		ProjectStatusPendingAssignment,
		ProjectStatusPlanning,
	},
	ProjectStatusPlanning: {
		ProjectStatusPendingAssignment,
		ProjectStatusInProgress,
	},
	ProjectStatusInProgress: {
		ProjectStatusSupervisorReview,
	},
	ProjectStatusSupervisorReview: {
		ProjectStatusInProgress,
		ProjectStatusAdminReview,
	},
	ProjectStatusAdminReview: {
		ProjectStatusSupervisorReview,
		ProjectStatusClientSignoff,
	},
	ProjectStatusClientSignoff: {
		ProjectStatusAdminReview,
		ProjectStatusCompleted,
	},
	ProjectStatusCompleted: {},
	ProjectStatusCancelled: {},
	ProjectStatusOnHold: {
		ProjectStatusCreated,
		ProjectStatusAssigned,
		ProjectStatusPlanning,
		ProjectStatusInProgress,
	},
}

// CanTransitionTo validates a project status transition. Completion through
// MarkProjectComplete and the hold/cancel side states are allowed from any
// non-terminal state.
func (s ProjectStatus) CanTransitionTo(to ProjectStatus) bool {
	if s == to {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if to == ProjectStatusCancelled || to == ProjectStatusOnHold || to == ProjectStatusCompleted {
		return true
	}
	for _, allowed := range validStatusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentService_Invite(t *testing.T) {
	t.Run("invite creates pending assignment and seed tasks", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Hall Frame", domain.ProjectStatusCreated, supervisor)
		ctx := ctxFor(supervisor)

		resp, err := env.assignments.Invite(ctx, project.ID, &domain.AssignFabricatorRequest{
			FabricatorID: fabricator.ID,
			Message:      "We need your welding expertise",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Project)
		assert.Equal(t, domain.ProjectStatusPendingAssignment, resp.Project.Status)
		assert.Empty(t, resp.Project.FabricatorIDs)

		require.Len(t, resp.Tasks, 2)
		titles := []string{resp.Tasks[0].Title, resp.Tasks[1].Title}
		assert.Contains(t, titles, "Project Planning Review")
		assert.Contains(t, titles, "Material Assessment")
		for _, task := range resp.Tasks {
			require.NotNil(t, task.AssignedTo)
			assert.Equal(t, fabricator.ID, *task.AssignedTo)
			assert.Equal(t, domain.TaskStatusPending, task.Status)
		}

		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, domain.AssignmentStatusPending, pending[0].Status)
		assert.Equal(t, project.ID, pending[0].ProjectID)
	})

	t.Run("non-manager cannot invite", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Owner", domain.RoleSupervisor)
		other := env.createUser(t, "Other Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Stair Tower", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(other), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("invitee must be an active fabricator", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		client := env.createUser(t, "Client", domain.RoleClient)
		project := env.createProject(t, "Gate Assembly", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: client.ID})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("duplicate pending invitation is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Silo Repair", domain.ProjectStatusCreated, supervisor)
		ctx := ctxFor(supervisor)

		_, err := env.assignments.Invite(ctx, project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)

		_, err = env.assignments.Invite(ctx, project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("existing member cannot be invited again", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Beam Welding", domain.ProjectStatusAssigned, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("cannot invite on completed project", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Finished Job", domain.ProjectStatusCompleted, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("project not found", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

		_, err := env.assignments.Invite(ctxFor(admin), uuid.New(), &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		assert.ErrorIs(t, err, service.ErrProjectNotFound)
	})
}

func TestAssignmentService_Accept(t *testing.T) {
	t.Run("accept grants membership and moves project to planning", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Conveyor Frame", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)

		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		updated, err := env.assignments.Accept(ctxFor(fabricator), pending[0].ID, "Happy to help")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusPlanning, updated.Status)
		assert.Contains(t, updated.FabricatorIDs, fabricator.ID)

		// The invitation has left the pending list and shows up in history
		pending, err = env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		assert.Empty(t, pending)

		history, err := env.assignments.ListHistoryForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.AssignmentStatusAccepted, history[0].Status)
		assert.Equal(t, "Happy to help", history[0].Response)
		assert.NotNil(t, history[0].RespondedAt)
	})

	t.Run("accepting twice reports already resolved", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Tank Shell", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)
		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		_, err = env.assignments.Accept(ctxFor(fabricator), pending[0].ID, "")
		require.NoError(t, err)

		_, err = env.assignments.Accept(ctxFor(fabricator), pending[0].ID, "")
		assert.ErrorIs(t, err, service.ErrAlreadyResolved)

		// Declining after accepting must not flip the terminal status either
		_, err = env.assignments.Decline(ctxFor(fabricator), pending[0].ID, "changed my mind")
		assert.ErrorIs(t, err, service.ErrAlreadyResolved)

		a, err := env.assignmentRepo.GetByID(context.Background(), pending[0].ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusAccepted, a.Status)
	})

	t.Run("only the invited fabricator may respond", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		imposter := env.createUser(t, "Imposter", domain.RoleFabricator)
		project := env.createProject(t, "Bridge Rail", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)
		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		_, err = env.assignments.Accept(ctxFor(imposter), pending[0].ID, "")
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("assignment not found", func(t *testing.T) {
		env := newTestEnv(t)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

		_, err := env.assignments.Accept(ctxFor(fabricator), uuid.New(), "")
		assert.ErrorIs(t, err, service.ErrAssignmentNotFound)
	})
}

func TestAssignmentService_Decline(t *testing.T) {
	t.Run("decline leaves membership and status untouched", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Platform Deck", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)
		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		updated, err := env.assignments.Decline(ctxFor(fabricator), pending[0].ID, "Fully booked this month")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusPendingAssignment, updated.Status)
		assert.Empty(t, updated.FabricatorIDs)

		history, err := env.assignments.ListHistoryForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.AssignmentStatusDeclined, history[0].Status)
		assert.Equal(t, "Fully booked this month", history[0].Response)
	})

	t.Run("declined fabricator can be invited again", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Duct Work", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)
		pending, err := env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		_, err = env.assignments.Decline(ctxFor(fabricator), pending[0].ID, "")
		require.NoError(t, err)

		_, err = env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)

		pending, err = env.assignments.ListPendingForCurrentUser(ctxFor(fabricator))
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})
}

func TestAssignmentService_ListByProject(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	first := env.createUser(t, "First Fabricator", domain.RoleFabricator)
	second := env.createUser(t, "Second Fabricator", domain.RoleFabricator)
	project := env.createProject(t, "Crane Runway", domain.ProjectStatusCreated, supervisor)
	ctx := ctxFor(supervisor)

	_, err := env.assignments.Invite(ctx, project.ID, &domain.AssignFabricatorRequest{FabricatorID: first.ID})
	require.NoError(t, err)
	_, err = env.assignments.Invite(ctx, project.ID, &domain.AssignFabricatorRequest{FabricatorID: second.ID})
	require.NoError(t, err)

	assignments, err := env.assignments.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	// Fabricators cannot enumerate a project's assignments
	_, err = env.assignments.ListByProject(ctxFor(first), project.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestAssignmentService_RemindStalePending(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
	project := env.createProject(t, "Hopper Build", domain.ProjectStatusPendingAssignment, supervisor)

	stale := &domain.Assignment{
		ProjectID:    project.ID,
		FabricatorID: fabricator.ID,
		AssignedBy:   supervisor.ID,
		AssignedAt:   time.Now().UTC().Add(-72 * time.Hour),
		Status:       domain.AssignmentStatusPending,
	}
	require.NoError(t, env.assignmentRepo.Create(context.Background(), nil, stale))

	fresh := &domain.Assignment{
		ProjectID:    project.ID,
		FabricatorID: supervisor.ID,
		AssignedBy:   supervisor.ID,
		AssignedAt:   time.Now().UTC(),
		Status:       domain.AssignmentStatusPending,
	}
	require.NoError(t, env.assignmentRepo.Create(context.Background(), nil, fresh))

	reminded, err := env.assignments.RemindStalePending(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reminded)

	count, err := env.notificationRepo.CountUnread(context.Background(), fabricator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

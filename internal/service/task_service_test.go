package service_test

import (
	"testing"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Create(t *testing.T) {
	t.Run("manager creates task for a member", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Truss Batch", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		task, err := env.tasks.Create(ctxFor(supervisor), project.ID, &domain.CreateTaskRequest{
			Title:          "Weld gusset plates",
			Priority:       domain.PriorityHigh,
			AssignedTo:     &fabricator.ID,
			EstimatedHours: 12,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, domain.PriorityHigh, task.Priority)
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, fabricator.ID, *task.AssignedTo)
	})

	t.Run("assignee must be a project member", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		outsider := env.createUser(t, "Outsider", domain.RoleFabricator)
		project := env.createProject(t, "Column Splices", domain.ProjectStatusInProgress, supervisor)

		_, err := env.tasks.Create(ctxFor(supervisor), project.ID, &domain.CreateTaskRequest{
			Title:      "Fit base plates",
			AssignedTo: &outsider.ID,
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("fabricators cannot create tasks", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Purlin Run", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		_, err := env.tasks.Create(ctxFor(fabricator), project.ID, &domain.CreateTaskRequest{Title: "Extra work"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestTaskService_UpdateStatus(t *testing.T) {
	t.Run("assignee updates status and actual hours", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Bracing Set", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		task, err := env.tasks.Create(ctxFor(supervisor), project.ID, &domain.CreateTaskRequest{
			Title:      "Drill bolt holes",
			AssignedTo: &fabricator.ID,
		})
		require.NoError(t, err)

		hours := 6.5
		updated, err := env.tasks.UpdateStatus(ctxFor(fabricator), task.ID, &domain.UpdateTaskStatusRequest{
			Status:      domain.TaskStatusCompleted,
			ActualHours: &hours,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
		assert.Equal(t, 6.5, updated.ActualHours)
	})

	t.Run("unrelated fabricator cannot update", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		other := env.createUser(t, "Other", domain.RoleFabricator)
		project := env.createProject(t, "Cladding Rails", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		env.addMember(t, project.ID, other.ID)

		task, err := env.tasks.Create(ctxFor(supervisor), project.ID, &domain.CreateTaskRequest{
			Title:      "Tack weld rails",
			AssignedTo: &fabricator.ID,
		})
		require.NoError(t, err)

		_, err = env.tasks.UpdateStatus(ctxFor(other), task.ID, &domain.UpdateTaskStatusRequest{Status: domain.TaskStatusInProgress})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestTaskService_ListOwn(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
	project := env.createProject(t, "Stair Stringers", domain.ProjectStatusCreated, supervisor)

	// The invitation seeds two starter tasks for the fabricator
	_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
	require.NoError(t, err)

	own, err := env.tasks.ListOwn(ctxFor(fabricator))
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, task := range own {
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, fabricator.ID, *task.AssignedTo)
	}
}

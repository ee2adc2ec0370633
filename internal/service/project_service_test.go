package service_test

import (
	"testing"
	"time"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProjectRequest(name string) *domain.CreateProjectRequest {
	return &domain.CreateProjectRequest{
		Name:      name,
		StartDate: time.Now().UTC(),
		Budget:    250000,
		Revenue:   400000,
	}
}

func TestProjectService_Create(t *testing.T) {
	t.Run("direct assignment makes fabricators members immediately", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)
		first := env.createUser(t, "First Fabricator", domain.RoleFabricator)
		second := env.createUser(t, "Second Fabricator", domain.RoleFabricator)

		req := createProjectRequest("Weld Shop Extension")
		req.FabricatorIDs = []uuid.UUID{first.ID, second.ID}

		project, err := env.projects.Create(ctxFor(admin), req)
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusAssigned, project.Status)
		assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, project.FabricatorIDs)

		// Direct assignment bypasses the invitation protocol entirely
		assignments, err := env.assignments.ListByProject(ctxFor(admin), project.ID)
		require.NoError(t, err)
		assert.Empty(t, assignments)
	})

	t.Run("manual assign starts empty in created status", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)

		req := createProjectRequest("Custom Railings")
		req.ManualAssign = true

		project, err := env.projects.Create(ctxFor(admin), req)
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusCreated, project.Status)
		assert.Empty(t, project.FabricatorIDs)
	})

	t.Run("no fabricators without manual assign still starts created", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)

		project, err := env.projects.Create(ctxFor(admin), createProjectRequest("Spiral Stair"))
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusCreated, project.Status)
	})

	t.Run("manual assign with initial fabricators is contradictory", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

		req := createProjectRequest("Contradiction")
		req.ManualAssign = true
		req.FabricatorIDs = []uuid.UUID{fabricator.ID}

		_, err := env.projects.Create(ctxFor(admin), req)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("end date before start date is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)

		req := createProjectRequest("Time Machine")
		end := req.StartDate.Add(-48 * time.Hour)
		req.EndDate = &end

		_, err := env.projects.Create(ctxFor(admin), req)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("listed fabricators must hold the fabricator role", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)
		client := env.createUser(t, "Client", domain.RoleClient)

		req := createProjectRequest("Wrong Crew")
		req.FabricatorIDs = []uuid.UUID{client.ID}

		_, err := env.projects.Create(ctxFor(admin), req)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("fabricators cannot create projects", func(t *testing.T) {
		env := newTestEnv(t)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

		_, err := env.projects.Create(ctxFor(fabricator), createProjectRequest("Side Job"))
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestProjectService_UpdateStatus(t *testing.T) {
	t.Run("valid transition", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Portal Frame", domain.ProjectStatusPlanning, supervisor)

		updated, err := env.projects.UpdateStatus(ctxFor(supervisor), project.ID, "in_progress")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusInProgress, updated.Status)
	})

	t.Run("legacy status names are accepted", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Legacy Names", domain.ProjectStatusInProgress, supervisor)
		ctx := ctxFor(supervisor)

		updated, err := env.projects.UpdateStatus(ctx, project.ID, "2_Ready_for_Supervisor_Review")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusSupervisorReview, updated.Status)

		updated, err = env.projects.UpdateStatus(ctx, project.ID, "3_Ready_for_Admin_Review")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusAdminReview, updated.Status)

		updated, err = env.projects.UpdateStatus(ctx, project.ID, "on-hold")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusOnHold, updated.Status)
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "No Shortcuts", domain.ProjectStatusPlanning, supervisor)

		_, err := env.projects.UpdateStatus(ctxFor(supervisor), project.ID, "client_signoff")
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("terminal projects are frozen", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Cancelled Job", domain.ProjectStatusCancelled, supervisor)

		_, err := env.projects.UpdateStatus(ctxFor(supervisor), project.ID, "in_progress")
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Steady State", domain.ProjectStatusInProgress, supervisor)

		updated, err := env.projects.UpdateStatus(ctxFor(supervisor), project.ID, "in_progress")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusInProgress, updated.Status)
	})

	t.Run("unknown status name", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Typo Target", domain.ProjectStatusPlanning, supervisor)

		_, err := env.projects.UpdateStatus(ctxFor(supervisor), project.ID, "in_progresss")
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestProjectService_MarkComplete(t *testing.T) {
	t.Run("completion forces progress to 100", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Done Deal", domain.ProjectStatusInProgress, supervisor)
		require.NoError(t, env.db.Model(&domain.Project{}).
			Where("id = ?", project.ID).Update("progress", 70).Error)

		updated, err := env.projects.MarkComplete(ctxFor(supervisor), project.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusCompleted, updated.Status)
		assert.Equal(t, 100, updated.Progress)
	})

	t.Run("completing a cancelled project fails", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Dead Project", domain.ProjectStatusCancelled, supervisor)

		_, err := env.projects.MarkComplete(ctxFor(supervisor), project.ID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("only managers complete projects", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Not Yours", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		_, err := env.projects.MarkComplete(ctxFor(fabricator), project.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("project not found", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.createUser(t, "Admin", domain.RoleAdmin)

		_, err := env.projects.MarkComplete(ctxFor(admin), uuid.New())
		assert.ErrorIs(t, err, service.ErrProjectNotFound)
	})
}

func TestProjectService_List(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "Admin", domain.RoleAdmin)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	other := env.createUser(t, "Other Supervisor", domain.RoleSupervisor)
	fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

	mine := env.createProject(t, "Mine", domain.ProjectStatusInProgress, supervisor)
	env.createProject(t, "Theirs", domain.ProjectStatusInProgress, other)
	env.addMember(t, mine.ID, fabricator.ID)

	t.Run("admins see everything", func(t *testing.T) {
		result, err := env.projects.List(ctxFor(admin), 1, 20, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("supervisors see their own projects", func(t *testing.T) {
		result, err := env.projects.List(ctxFor(supervisor), 1, 20, nil)
		require.NoError(t, err)
		require.Equal(t, int64(1), result.Total)
		projects := result.Data.([]domain.ProjectDTO)
		assert.Equal(t, "Mine", projects[0].Name)
	})

	t.Run("fabricators see their memberships", func(t *testing.T) {
		result, err := env.projects.List(ctxFor(fabricator), 1, 20, nil)
		require.NoError(t, err)
		require.Equal(t, int64(1), result.Total)
		projects := result.Data.([]domain.ProjectDTO)
		assert.Equal(t, mine.ID, projects[0].ID)
	})
}

func TestProjectService_GetByID(t *testing.T) {
	t.Run("members and managers can read the project", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		outsider := env.createUser(t, "Outsider", domain.RoleFabricator)
		project := env.createProject(t, "Access Check", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		got, err := env.projects.GetByID(ctxFor(supervisor), project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.ID)

		_, err = env.projects.GetByID(ctxFor(fabricator), project.ID)
		require.NoError(t, err)

		_, err = env.projects.GetByID(ctxFor(outsider), project.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("invited fabricators may view before accepting", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Preview", domain.ProjectStatusCreated, supervisor)

		_, err := env.assignments.Invite(ctxFor(supervisor), project.ID, &domain.AssignFabricatorRequest{FabricatorID: fabricator.ID})
		require.NoError(t, err)

		got, err := env.projects.GetByID(ctxFor(fabricator), project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.ID)
	})
}

func TestProjectService_ListActivities(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	project := env.createProject(t, "Audit Trail", domain.ProjectStatusPlanning, supervisor)
	ctx := ctxFor(supervisor)

	_, err := env.projects.UpdateStatus(ctx, project.ID, "in_progress")
	require.NoError(t, err)
	_, err = env.projects.UpdateStatus(ctx, project.ID, "supervisor_review")
	require.NoError(t, err)

	activities, err := env.projects.ListActivities(ctx, project.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	for _, a := range activities {
		assert.Equal(t, domain.ActivityTargetProject, a.TargetType)
		assert.Equal(t, project.ID, a.TargetID)
	}
}

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

func recordWorkRequest(hours float64, progress int) *domain.RecordWorkRequest {
	return &domain.RecordWorkRequest{
		Date:            time.Now().UTC(),
		HoursWorked:     hours,
		ProgressPercent: progress,
		Description:     "Cut and welded base plates",
	}
}

func TestWorkLogService_RecordWork(t *testing.T) {
	t.Run("recording work accumulates project progress", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Frame Assembly", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(fabricator)

		resp, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(6, 25))
		require.NoError(t, err)
		assert.Equal(t, 25, resp.Project.Progress)
		assert.Equal(t, float64(6), resp.WorkLog.HoursWorked)

		resp, err = env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(4, 30))
		require.NoError(t, err)
		assert.Equal(t, 55, resp.Project.Progress)

		logs, err := env.workLogs.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 2)
	})

	t.Run("progress is clamped at 100", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Handrail Batch", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(fabricator)

		_, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(8, 80))
		require.NoError(t, err)

		resp, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(8, 60))
		require.NoError(t, err)
		assert.Equal(t, 100, resp.Project.Progress)

		// Reaching 100 does not complete the project
		assert.Equal(t, domain.ProjectStatusInProgress, resp.Project.Status)

		// The stored log keeps the raw contribution, not the clamped value
		logs, err := env.workLogs.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, 140, logs[0].ProgressPercent+logs[1].ProgressPercent)
	})

	t.Run("progress never decreases", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Ladder Cage", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(fabricator)

		_, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(5, 40))
		require.NoError(t, err)

		resp, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(2, 0))
		require.NoError(t, err)
		assert.Equal(t, 40, resp.Project.Progress)
	})

	t.Run("hours must be positive", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Chute Liner", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(fabricator)

		_, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(0, 10))
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(-2, 10))
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("progress contribution outside 0..100 is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Walkway", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(fabricator)

		_, err := env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(3, 120))
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = env.workLogs.RecordWork(ctx, project.ID, recordWorkRequest(3, -5))
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("only project members log work", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		outsider := env.createUser(t, "Outsider", domain.RoleFabricator)
		project := env.createProject(t, "Pipe Rack", domain.ProjectStatusInProgress, supervisor)

		_, err := env.workLogs.RecordWork(ctxFor(outsider), project.ID, recordWorkRequest(4, 10))
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		// Supervisors manage the project but do not log work on it
		_, err = env.workLogs.RecordWork(ctxFor(supervisor), project.ID, recordWorkRequest(4, 10))
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("no work on terminal projects", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Closed Job", domain.ProjectStatusCompleted, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		_, err := env.workLogs.RecordWork(ctxFor(fabricator), project.ID, recordWorkRequest(4, 10))
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("project not found", func(t *testing.T) {
		env := newTestEnv(t)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)

		_, err := env.workLogs.RecordWork(ctxFor(fabricator), uuid.New(), recordWorkRequest(4, 10))
		assert.ErrorIs(t, err, service.ErrProjectNotFound)
	})
}

func TestWorkLogService_Materials(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
	project := env.createProject(t, "Storage Rack", domain.ProjectStatusInProgress, supervisor)
	env.addMember(t, project.ID, fabricator.ID)
	ctx := ctxFor(fabricator)

	req := recordWorkRequest(5, 20)
	req.Materials = []string{"S355 plate 10mm", "M16 bolts", ""}

	resp, err := env.workLogs.RecordWork(ctx, project.ID, req)
	require.NoError(t, err)

	materials, err := env.workLogs.ListMaterialsByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, materials, 2)
	for _, m := range materials {
		assert.Equal(t, project.ID, m.ProjectID)
		require.NotNil(t, m.WorkLogID)
		assert.Equal(t, resp.WorkLog.ID, *m.WorkLogID)
	}
}

func TestWorkLogService_ListOwn(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
	colleague := env.createUser(t, "Colleague", domain.RoleFabricator)
	first := env.createProject(t, "Shed Frame", domain.ProjectStatusInProgress, supervisor)
	second := env.createProject(t, "Fence Panels", domain.ProjectStatusInProgress, supervisor)
	env.addMember(t, first.ID, fabricator.ID)
	env.addMember(t, second.ID, fabricator.ID)
	env.addMember(t, second.ID, colleague.ID)

	_, err := env.workLogs.RecordWork(ctxFor(fabricator), first.ID, recordWorkRequest(3, 10))
	require.NoError(t, err)
	_, err = env.workLogs.RecordWork(ctxFor(fabricator), second.ID, recordWorkRequest(2, 10))
	require.NoError(t, err)
	_, err = env.workLogs.RecordWork(ctxFor(colleague), second.ID, recordWorkRequest(7, 10))
	require.NoError(t, err)

	own, err := env.workLogs.ListOwn(ctxFor(fabricator))
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, l := range own {
		assert.Equal(t, fabricator.ID, l.FabricatorID)
	}
}

func TestWorkLogService_UnauthenticatedContext(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.workLogs.RecordWork(context.Background(), uuid.New(), recordWorkRequest(1, 1))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

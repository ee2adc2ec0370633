package service_test

import (
	"context"
	"testing"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueService_Allocate(t *testing.T) {
	t.Run("allocations within revenue are stored", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		first := env.createUser(t, "First Fabricator", domain.RoleFabricator)
		second := env.createUser(t, "Second Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Mezzanine Floor", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, first.ID)
		env.addMember(t, project.ID, second.ID)
		ctx := ctxFor(supervisor)

		_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{
				first.ID:  200000,
				second.ID: 150000,
			},
		})
		require.NoError(t, err)

		budgets, err := env.revenue.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, budgets, 2)

		byFabricator := map[uuid.UUID]float64{}
		for _, b := range budgets {
			byFabricator[b.FabricatorID] = b.AllocatedRevenue
		}
		assert.Equal(t, float64(200000), byFabricator[first.ID])
		assert.Equal(t, float64(150000), byFabricator[second.ID])
	})

	t.Run("over-allocation rejects the whole batch with the excess", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Roof Trusses", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(supervisor)

		// Project revenue is 500000
		_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{fabricator.ID: 600000},
		})
		require.Error(t, err)

		var overAlloc *service.OverAllocationError
		require.ErrorAs(t, err, &overAlloc)
		assert.Equal(t, float64(500000), overAlloc.Revenue)
		assert.Equal(t, float64(600000), overAlloc.Requested)
		assert.InDelta(t, 100000, overAlloc.Excess(), 0.001)

		// Nothing was written
		budgets, err := env.revenue.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, budgets)
	})

	t.Run("post-state sum counts untouched existing allocations", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		first := env.createUser(t, "First Fabricator", domain.RoleFabricator)
		second := env.createUser(t, "Second Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Tank Farm", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, first.ID)
		env.addMember(t, project.ID, second.ID)
		ctx := ctxFor(supervisor)

		_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{first.ID: 300000},
		})
		require.NoError(t, err)

		// 300000 already held by the first fabricator leaves only 200000
		_, err = env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{second.ID: 250000},
		})
		var overAlloc *service.OverAllocationError
		require.ErrorAs(t, err, &overAlloc)
		assert.InDelta(t, 50000, overAlloc.Excess(), 0.001)

		// Re-allocating the first fabricator down makes room
		_, err = env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{
				first.ID:  250000,
				second.ID: 250000,
			},
		})
		require.NoError(t, err)
	})

	t.Run("allocation preserves existing cost figures", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Feed Hopper", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(supervisor)

		require.NoError(t, env.db.Create(&domain.FabricatorBudget{
			ProjectID:       project.ID,
			FabricatorID:    fabricator.ID,
			AllocatedAmount: 80000,
			SpentAmount:     12500,
		}).Error)

		_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{fabricator.ID: 100000},
		})
		require.NoError(t, err)

		budgets, err := env.revenue.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		assert.Equal(t, float64(100000), budgets[0].AllocatedRevenue)
		assert.Equal(t, float64(80000), budgets[0].AllocatedAmount)
		assert.Equal(t, float64(12500), budgets[0].SpentAmount)
	})

	t.Run("negative amounts and non-members are rejected", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		outsider := env.createUser(t, "Outsider", domain.RoleFabricator)
		project := env.createProject(t, "Stack Support", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)
		ctx := ctxFor(supervisor)

		_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{fabricator.ID: -100},
		})
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{outsider.ID: 1000},
		})
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("only project managers allocate", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		fabricator := env.createUser(t, "Fabricator", domain.RoleFabricator)
		project := env.createProject(t, "Bin Wall", domain.ProjectStatusInProgress, supervisor)
		env.addMember(t, project.ID, fabricator.ID)

		_, err := env.revenue.Allocate(ctxFor(fabricator), project.ID, &domain.AllocateRevenueRequest{
			Allocations: map[uuid.UUID]float64{fabricator.ID: 1000},
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestRevenueService_SplitEqually(t *testing.T) {
	t.Run("split truncates shares to two decimals", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Gantry Beams", domain.ProjectStatusInProgress, supervisor)
		require.NoError(t, env.db.Model(&domain.Project{}).
			Where("id = ?", project.ID).Update("revenue", 1000).Error)

		fabricators := make([]*domain.User, 3)
		for i := range fabricators {
			fabricators[i] = env.createUser(t, "Fabricator", domain.RoleFabricator)
			env.addMember(t, project.ID, fabricators[i].ID)
		}
		ctx := ctxFor(supervisor)

		_, err := env.revenue.SplitEqually(ctx, project.ID)
		require.NoError(t, err)

		budgets, err := env.revenue.ListByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, budgets, 3)

		var total float64
		for _, b := range budgets {
			// 1000 / 3 truncated, never rounded up
			assert.Equal(t, 333.33, b.AllocatedRevenue)
			total += b.AllocatedRevenue
		}
		assert.LessOrEqual(t, total, float64(1000))
	})

	t.Run("split with no members is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
		project := env.createProject(t, "Empty Crew", domain.ProjectStatusInProgress, supervisor)

		_, err := env.revenue.SplitEqually(ctxFor(supervisor), project.ID)
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestRevenueService_ClearAll(t *testing.T) {
	env := newTestEnv(t)
	supervisor := env.createUser(t, "Supervisor", domain.RoleSupervisor)
	first := env.createUser(t, "First Fabricator", domain.RoleFabricator)
	second := env.createUser(t, "Second Fabricator", domain.RoleFabricator)
	project := env.createProject(t, "Pressure Vessel", domain.ProjectStatusInProgress, supervisor)
	env.addMember(t, project.ID, first.ID)
	env.addMember(t, project.ID, second.ID)
	ctx := ctxFor(supervisor)

	_, err := env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
		Allocations: map[uuid.UUID]float64{
			first.ID:  100000,
			second.ID: 50000,
		},
	})
	require.NoError(t, err)

	_, err = env.revenue.ClearAll(ctx, project.ID)
	require.NoError(t, err)

	budgets, err := env.revenue.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	for _, b := range budgets {
		assert.Zero(t, b.AllocatedRevenue)
	}

	// Revenue is freed up for the next batch
	_, err = env.revenue.Allocate(ctx, project.ID, &domain.AllocateRevenueRequest{
		Allocations: map[uuid.UUID]float64{first.ID: 500000},
	})
	require.NoError(t, err)
}

func TestRevenueService_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.revenue.ClearAll(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

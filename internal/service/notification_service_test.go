package service_test

import (
	"context"
	"testing"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "Recipient", domain.RoleFabricator)
	ctx := ctxFor(user)

	created, err := env.notifications.CreateForUser(context.Background(), user.ID,
		domain.NotificationTypeProjectUpdate, "Project update", "Steel delivery confirmed", "project", nil)
	require.NoError(t, err)
	assert.False(t, created.Read)

	_, err = env.notifications.CreateForUser(context.Background(), user.ID,
		domain.NotificationTypeTaskAssigned, "New task", "Weld gusset plates", "task", nil)
	require.NoError(t, err)

	list, err := env.notifications.ListForCurrentUser(ctx, false, 50)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := env.notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationService_MarkRead(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", domain.RoleFabricator)
	other := env.createUser(t, "Other", domain.RoleFabricator)

	created, err := env.notifications.CreateForUser(context.Background(), owner.ID,
		domain.NotificationTypeProjectUpdate, "Update", "Drawings revised", "project", nil)
	require.NoError(t, err)

	// Only the owner may mark it read
	err = env.notifications.MarkRead(ctxFor(other), created.ID)
	assert.ErrorIs(t, err, service.ErrNotificationNotOwned)

	require.NoError(t, env.notifications.MarkRead(ctxFor(owner), created.ID))

	unread, err := env.notifications.ListForCurrentUser(ctxFor(owner), true, 50)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "Busy User", domain.RoleSupervisor)
	ctx := ctxFor(user)

	for i := 0; i < 3; i++ {
		_, err := env.notifications.CreateForUser(context.Background(), user.ID,
			domain.NotificationTypeStatusChange, "Status changed", "A project moved on", "project", nil)
		require.NoError(t, err)
	}

	require.NoError(t, env.notifications.MarkAllRead(ctx))

	count, err := env.notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_RequiresUserContext(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.notifications.ListForCurrentUser(context.Background(), false, 10)
	assert.ErrorIs(t, err, service.ErrUserContextRequired)

	err = env.notifications.MarkAllRead(context.Background())
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}

package services_test

import (
	"context"
	"testing"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_GetAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.accounts.GetAccount(ctx, outsider)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Coins)
	assert.Equal(t, 1, resp.Level)
	require.NotNil(t, resp.NextLevelXP)
	assert.Equal(t, 100, *resp.NextLevelXP)
	assert.Empty(t, resp.Achievements)

	env.completed(t)

	resp, err = env.accounts.GetAccount(ctx, mentorID)
	require.NoError(t, err)
	require.Len(t, resp.Achievements, 1)
	assert.Equal(t, "first_session", resp.Achievements[0].Code)
}

func TestAccountService_ListNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, env.store.CreateNotification(ctx, &models.Notification{
			UserID:  learnerID,
			Type:    models.NotifyNewEvent,
			Message: msg,
		}))
	}

	resp, err := env.accounts.ListNotifications(ctx, learnerID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "third", resp.Notifications[0].Message)

	resp, err = env.accounts.ListNotifications(ctx, learnerID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)

	resp, err = env.accounts.ListNotifications(ctx, mentorID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
}

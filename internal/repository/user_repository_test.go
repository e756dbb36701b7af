package repository

import (
	"context"
	"testing"
	"time"

	"trading-panel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &model.User{TelegramID: 1001, Username: "alpha"}))
	require.NoError(t, repo.Upsert(ctx, &model.User{TelegramID: 1002, Username: "beta"}))

	ids, err := repo.ListActiveTelegramIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1001, 1002}, ids)

	ok, err := repo.Deactivate(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Deactivate(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, ok, "already inactive")

	ids, err = repo.ListActiveTelegramIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1002}, ids)

	// a returning user is reactivated and the profile refreshed, never duplicated
	require.NoError(t, repo.Upsert(ctx, &model.User{TelegramID: 1001, Username: "alpha2", FirstName: "Al"}))
	user, err := repo.GetUserByTelegramID(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsActive)
	assert.Equal(t, "alpha2", user.Username)
	assert.Equal(t, "Al", user.FirstName)

	total, err := repo.Count(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUserRepository_GetUnknownUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.GetUserByTelegramID(context.Background(), 7)
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_TouchLastNotified(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	require.NoError(t, repo.Upsert(ctx, &model.User{TelegramID: 5}))
	require.NoError(t, repo.Upsert(ctx, &model.User{TelegramID: 6}))

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastNotified(ctx, []int64{5}, at))
	require.NoError(t, repo.TouchLastNotified(ctx, nil, at))

	touched, err := repo.GetUserByTelegramID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, touched.LastNotifiedAt)
	assert.True(t, at.Equal(*touched.LastNotifiedAt))

	untouched, err := repo.GetUserByTelegramID(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, untouched.LastNotifiedAt)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trading-panel/internal/model"
	"trading-panel/internal/repository"
	"trading-panel/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeSender struct {
	mu     sync.Mutex
	errs   map[int64]error
	sentTo []int64
}

func (f *fakeSender) SendHTML(_ context.Context, chatID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[chatID]; err != nil {
		return err
	}
	f.sentTo = append(f.sentTo, chatID)
	return nil
}

func TestNotificationService_Broadcast(t *testing.T) {
	ctx := context.Background()
	userRepo := repository.NewUserRepository(newTestDB(t))
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, userRepo.Upsert(ctx, &model.User{TelegramID: id}))
	}

	sender := &fakeSender{errs: map[int64]error{
		2:  telebot.ErrBlockedByUser,
		3:  errors.New("i/o timeout"),
		50: telebot.ErrChatNotFound,
	}}
	svc := NewNotificationService(logger.NewNop(), sender, userRepo, []int64{99, 1, 50}, 0)

	result := svc.Broadcast(ctx, "hello")

	// user 1 is also an admin and receives the message once
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, []int64{2}, result.Deactivated)
	assert.ElementsMatch(t, []int64{1, 99}, sender.sentTo)

	ids, err := userRepo.ListActiveTelegramIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids, "a transient failure keeps the subscriber")

	user, err := userRepo.GetUserByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, user.LastNotifiedAt)
	user, err = userRepo.GetUserByTelegramID(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, user.LastNotifiedAt)
}

func TestNotificationService_NoRecipients(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(logger.NewNop(), sender, repository.NewUserRepository(newTestDB(t)), nil, 0)

	result := svc.Broadcast(context.Background(), "hello")
	assert.Zero(t, result.Total)
	assert.Empty(t, sender.sentTo)
}

func TestNotificationService_StopsOnCancel(t *testing.T) {
	sender := &fakeSender{}
	// the subscriber query fails on a cancelled context, so only admins remain
	svc := NewNotificationService(logger.NewNop(), sender, repository.NewUserRepository(newTestDB(t)), []int64{1, 2, 3}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := svc.Broadcast(ctx, "hello")

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 2, result.Failed)
}

func TestNotificationService_Formatters(t *testing.T) {
	userRepo := repository.NewUserRepository(newTestDB(t))
	sender := &fakeSender{}
	svc := NewNotificationService(logger.NewNop(), sender, userRepo, []int64{7}, 0)

	result := svc.NotifyPositionOpened(context.Background(), model.Position{Name: "BTCUSDT", PosType: model.PositionLong, Percent: 5, EntryPrice: 100})
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []int64{7}, sender.sentTo)
}

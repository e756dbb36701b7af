package service

import (
	"context"
	"testing"

	"trading-panel/internal/dto"
	"trading-panel/internal/repository"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBotFixture(t *testing.T) (TelegramBotService, positionFixture) {
	t.Helper()
	db := newTestDB(t)
	prices := newFakePrices(map[string]float64{"BTCUSDT": 66000})
	notifier := &fakeNotifier{}
	repo := repository.NewPositionRepository(db)
	positions := NewPositionService(logger.NewNop(), NewValidator(), repo, repository.NewUnitOfWork(db), prices, notifier, RetryPolicy{})
	bot := NewTelegramBotService(logger.NewNop(), repository.NewUserRepository(db), positions, prices, notifier)
	return bot, positionFixture{svc: positions, repo: repo, prices: prices, notifier: notifier}
}

func TestTelegramBotService_Subscription(t *testing.T) {
	ctx := context.Background()
	bot, _ := newBotFixture(t)
	user := BotUser{TelegramID: 77, Username: "trader"}

	isNew, err := bot.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = bot.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.False(t, isNew)

	count, err := bot.SubscriberCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	ok, err := bot.UnregisterUser(ctx, 77)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err = bot.SubscriberCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	isNew, err = bot.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, isNew, "a returning user counts as a new subscription")
}

func TestTelegramBotService_ActivePositionsMessage(t *testing.T) {
	ctx := context.Background()
	bot, f := newBotFixture(t)

	msg, err := bot.ActivePositionsMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "No active positions")

	f.create(t, btcLong())
	f.create(t, dto.CreatePositionRequest{Name: "ETHUSDT", PosType: "short", Percent: utils.ToPointer(5), EntryPrice: utils.ToPointer(3000.0), TakeProfit: 2800, StopLoss: 3100})

	msg, err = bot.ActivePositionsMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "ACTIVE POSITIONS (2)")
	assert.Contains(t, msg, "P/L: +10.00%")
	assert.Contains(t, msg, "Price: n/a")
}

func TestTelegramBotService_NotifyAll(t *testing.T) {
	bot, f := newBotFixture(t)

	_, err := bot.NotifyAll(context.Background(), "   ")
	assert.ErrorIs(t, err, dto.ErrValidation)

	result, err := bot.NotifyAll(context.Background(), " maintenance at 20:00 ")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []string{"maintenance at 20:00"}, f.notifier.broadcasts)
}

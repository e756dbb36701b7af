package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Position{}, &model.PositionHistory{}, &model.PositionLog{}, &model.User{}))
	return db
}

// fakePrices is a PriceResolver backed by a fixed price table.
type fakePrices struct {
	mu       sync.Mutex
	prices   map[string]float64
	disabled bool
	lookups  int
}

func newFakePrices(prices map[string]float64) *fakePrices {
	return &fakePrices{prices: prices}
}

func (f *fakePrices) set(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakePrices) Enabled() bool {
	return !f.disabled
}

func (f *fakePrices) Resolve(ctx context.Context, symbol string) dto.PriceQuote {
	return f.ResolveMany(ctx, []string{symbol})[strings.ToUpper(symbol)]
}

func (f *fakePrices) ResolveMany(_ context.Context, symbols []string) map[string]dto.PriceQuote {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]dto.PriceQuote, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(s)
		f.lookups++
		quote := dto.PriceQuote{Symbol: s}
		if p, ok := f.prices[s]; ok && !f.disabled {
			quote.LastPrice = p
			quote.Found = true
		}
		out[s] = quote
	}
	return out
}

// fakeNotifier records every announcement.
type fakeNotifier struct {
	mu         sync.Mutex
	broadcasts []string
	opened     []model.Position
	closed     []dto.PositionClosure
	alerts     []dto.Alert

	// onNotify runs before a position announcement is recorded
	onNotify func()
	ctxErrs  []error
}

func (f *fakeNotifier) observe(ctx context.Context) {
	if f.onNotify != nil {
		f.onNotify()
	}
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
}

func (f *fakeNotifier) Broadcast(_ context.Context, message string) dto.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, message)
	return dto.BroadcastResult{Total: 1, Sent: 1}
}

func (f *fakeNotifier) NotifyPositionOpened(ctx context.Context, position model.Position) dto.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.opened = append(f.opened, position)
	return dto.BroadcastResult{}
}

func (f *fakeNotifier) NotifyPositionClosed(ctx context.Context, _ model.Position, closure dto.PositionClosure) dto.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.closed = append(f.closed, closure)
	return dto.BroadcastResult{}
}

func (f *fakeNotifier) NotifyAlertTriggered(_ context.Context, alert dto.Alert, _ float64) dto.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return dto.BroadcastResult{}
}

func (f *fakeNotifier) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closed)
}

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"trading-panel/internal/dto"
	"trading-panel/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertRegistry_CreateDerivesCondition(t *testing.T) {
	tests := []struct {
		name          string
		target        float64
		wantCondition dto.AlertCondition
	}{
		{name: "target above market", target: 110, wantCondition: dto.AlertAbove},
		{name: "target below market", target: 90, wantCondition: dto.AlertBelow},
		{name: "target at market", target: 100, wantCondition: dto.AlertBelow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAlertRegistry(logger.NewNop(), NewValidator(), newFakePrices(map[string]float64{"SOLUSDT": 100}), 1)

			alert, err := r.Create(context.Background(), dto.CreateAlertRequest{Name: "solusdt", TargetPrice: tt.target})
			require.NoError(t, err)
			assert.NotEmpty(t, alert.ID)
			assert.Equal(t, "SOLUSDT", alert.Name)
			assert.Equal(t, tt.wantCondition, alert.Condition)
			assert.Equal(t, 100.0, alert.CurrentPrice)
			assert.True(t, alert.Active)
		})
	}
}

func TestAlertRegistry_CreateFailures(t *testing.T) {
	prices := newFakePrices(map[string]float64{"SOLUSDT": 100})
	r := NewAlertRegistry(logger.NewNop(), NewValidator(), prices, 1)
	ctx := context.Background()

	_, err := r.Create(ctx, dto.CreateAlertRequest{Name: "SOLUSDT", TargetPrice: 0})
	assert.ErrorIs(t, err, dto.ErrValidation)

	_, err = r.Create(ctx, dto.CreateAlertRequest{Name: "NOPE", TargetPrice: 1})
	assert.ErrorIs(t, err, dto.ErrPriceUnavailable)

	prices.disabled = true
	_, err = r.Create(ctx, dto.CreateAlertRequest{Name: "SOLUSDT", TargetPrice: 1})
	assert.ErrorIs(t, err, dto.ErrPriceSourceDisabled)

	assert.Empty(t, r.List())
}

func TestAlertRegistry_Capacity(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"A": 1, "B": 1, "C": 1, "D": 1})

	single := NewAlertRegistry(logger.NewNop(), NewValidator(), prices, 0)
	_, err := single.Create(ctx, dto.CreateAlertRequest{Name: "A", TargetPrice: 2})
	require.NoError(t, err)
	second, err := single.Create(ctx, dto.CreateAlertRequest{Name: "B", TargetPrice: 2})
	require.NoError(t, err)
	assert.Equal(t, []dto.Alert{second}, single.List(), "a new alert replaces the armed one")

	multi := NewAlertRegistry(logger.NewNop(), NewValidator(), prices, 3)
	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := multi.Create(ctx, dto.CreateAlertRequest{Name: name, TargetPrice: 2})
		require.NoError(t, err)
	}
	var names []string
	for _, a := range multi.List() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"B", "C", "D"}, names)
	assert.Equal(t, 3, multi.Clear())
	assert.Empty(t, multi.Snapshot())
}

func TestAlertRegistry_ClaimOnce(t *testing.T) {
	r := NewAlertRegistry(logger.NewNop(), NewValidator(), newFakePrices(map[string]float64{"BTC": 100}), 1)
	alert, err := r.Create(context.Background(), dto.CreateAlertRequest{Name: "BTC", TargetPrice: 120})
	require.NoError(t, err)

	assert.True(t, r.UpdatePrice(alert.ID, 119))
	assert.Equal(t, 119.0, r.Snapshot()[0].CurrentPrice)

	var (
		wg     sync.WaitGroup
		claims atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if claimed, ok := r.Claim(alert.ID); ok {
				assert.False(t, claimed.Active)
				claims.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claims.Load())
	assert.False(t, r.UpdatePrice(alert.ID, 121))
	assert.False(t, r.Remove(alert.ID))
	assert.Empty(t, r.List())
}

func TestAlertTriggered(t *testing.T) {
	above := dto.Alert{Condition: dto.AlertAbove, TargetPrice: 100}
	below := dto.Alert{Condition: dto.AlertBelow, TargetPrice: 100}

	assert.True(t, above.Triggered(100))
	assert.False(t, above.Triggered(99.99))
	assert.True(t, below.Triggered(100))
	assert.False(t, below.Triggered(100.01))
	assert.False(t, dto.Alert{TargetPrice: 100}.Triggered(100))
}

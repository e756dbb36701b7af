package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"

	"github.com/stretchr/testify/require"
)

// memoryPositions is a PositionStore with a conditional close, like the real store.
type memoryPositions struct {
	mu        sync.Mutex
	positions map[uint]model.Position
	listErr   error
	closeErr  map[uint]error
	panicOn   map[uint]bool
	closures  map[uint][]dto.PositionClosure
}

func newMemoryPositions(positions ...model.Position) *memoryPositions {
	m := &memoryPositions{
		positions: map[uint]model.Position{},
		closeErr:  map[uint]error{},
		panicOn:   map[uint]bool{},
		closures:  map[uint][]dto.PositionClosure{},
	}
	for _, p := range positions {
		p.IsActive = true
		m.positions[p.ID] = p
	}
	return m
}

func (m *memoryPositions) ListActive(context.Context) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Position
	for _, p := range m.positions {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryPositions) ClosePosition(_ context.Context, position model.Position, closure dto.PositionClosure) (bool, error) {
	if m.panicOn[position.ID] {
		panic("store bug")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeErr[position.ID]; err != nil {
		return false, err
	}
	stored := m.positions[position.ID]
	if !stored.IsActive {
		return false, nil
	}
	stored.IsActive = false
	m.positions[position.ID] = stored
	m.closures[position.ID] = append(m.closures[position.ID], closure)
	return true, nil
}

// closeBehindTheBack simulates another closer winning the race.
func (m *memoryPositions) closeBehindTheBack(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.positions[id]
	p.IsActive = false
	m.positions[id] = p
}

type tablePrices struct {
	mu      sync.Mutex
	prices  map[string]float64
	batches [][]string
}

func (p *tablePrices) Resolve(ctx context.Context, symbol string) dto.PriceQuote {
	return p.ResolveMany(ctx, []string{symbol})[symbol]
}

func (p *tablePrices) ResolveMany(_ context.Context, symbols []string) map[string]dto.PriceQuote {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, symbols)
	out := make(map[string]dto.PriceQuote, len(symbols))
	for _, s := range symbols {
		q := dto.PriceQuote{Symbol: s}
		if v, ok := p.prices[s]; ok {
			q.LastPrice, q.Found = v, true
		}
		out[s] = q
	}
	return out
}

type recordingPublisher struct {
	mu        sync.Mutex
	positions [][]dto.PositionProjection
	alerts    [][]dto.Alert
}

func (r *recordingPublisher) PublishPositions(_ context.Context, projections []dto.PositionProjection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, projections)
}

func (r *recordingPublisher) PublishAlerts(_ context.Context, alerts []dto.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alerts)
}

func (r *recordingPublisher) PublishScreener(context.Context, []dto.ScreenerPair) {}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []dto.Alert
}

func (n *recordingNotifier) Broadcast(context.Context, string) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (n *recordingNotifier) NotifyPositionOpened(context.Context, model.Position) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (n *recordingNotifier) NotifyPositionClosed(context.Context, model.Position, dto.PositionClosure) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (n *recordingNotifier) NotifyAlertTriggered(_ context.Context, alert dto.Alert, _ float64) dto.BroadcastResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return dto.BroadcastResult{}
}

// memoryAlerts mirrors the registry semantics: Claim removes.
type memoryAlerts struct {
	mu     sync.Mutex
	alerts []dto.Alert
}

func (m *memoryAlerts) Snapshot() []dto.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dto.Alert{}, m.alerts...)
}

func (m *memoryAlerts) UpdatePrice(id string, price float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].CurrentPrice = price
			return true
		}
	}
	return false
}

func (m *memoryAlerts) Claim(id string) (dto.Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			a := m.alerts[i]
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			a.Active = false
			return a, true
		}
	}
	return dto.Alert{}, false
}

type fakeRefresher struct {
	pairs []dto.ScreenerPair
	err   error
}

func (f fakeRefresher) Refresh(context.Context) ([]dto.ScreenerPair, error) {
	return f.pairs, f.err
}

var errStore = errors.New("store unavailable")

func decodeSummary(t *testing.T, result JobResult, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(result.Output), v))
}

package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trading-panel/internal/dto"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(symbol string) dto.PriceQuote
}

func (s *stubSource) ResolvePrice(_ context.Context, symbol string) dto.PriceQuote {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[symbol]++
	s.mu.Unlock()
	return s.fn(symbol)
}

func TestPriceService_ResolveManyIsolatesFailures(t *testing.T) {
	source := &stubSource{fn: func(symbol string) dto.PriceQuote {
		switch symbol {
		case "BBB":
			return dto.PriceQuote{LastPrice: 2.5, Found: true}
		case "CCC":
			panic("upstream exploded")
		}
		return dto.PriceQuote{}
	}}
	c := cache.NewCache(time.Minute, time.Minute)
	svc := NewPriceService(logger.NewNop(), source, c, 2, time.Minute)

	quotes := svc.ResolveMany(context.Background(), []string{"aaa", "BBB", "bbb", "CCC", " "})

	assert.Len(t, quotes, 3)
	assert.False(t, quotes["AAA"].Found)
	assert.Equal(t, "AAA", quotes["AAA"].Symbol)
	assert.True(t, quotes["BBB"].Found)
	assert.Equal(t, 2.5, quotes["BBB"].LastPrice)
	assert.Equal(t, "BBB", quotes["BBB"].Symbol)
	assert.False(t, quotes["CCC"].Found)
	// duplicates are looked up once
	assert.Equal(t, 1, source.calls["BBB"])

	last, ok := svc.LastPrice("bbb")
	assert.True(t, ok)
	assert.Equal(t, 2.5, last)
	_, ok = svc.LastPrice("AAA")
	assert.False(t, ok)
}

func TestPriceService_Resolve(t *testing.T) {
	source := &stubSource{fn: func(symbol string) dto.PriceQuote {
		return dto.PriceQuote{ResolvedSymbol: symbol + "USDT", LastPrice: 10, Found: true}
	}}
	svc := NewPriceService(logger.NewNop(), source, nil, 0, time.Minute)

	quote := svc.Resolve(context.Background(), " eth ")
	assert.True(t, quote.Found)
	assert.Equal(t, "ETH", quote.Symbol)
	assert.Equal(t, "ETHUSDT", quote.ResolvedSymbol)
	assert.True(t, svc.Enabled())
}

func TestPriceService_WithoutSource(t *testing.T) {
	svc := NewPriceService(logger.NewNop(), nil, nil, 1, time.Minute)

	assert.False(t, svc.Enabled())
	quote := svc.Resolve(context.Background(), "BTC")
	assert.False(t, quote.Found)
	assert.Equal(t, "BTC", quote.Symbol)
}

func TestPriceService_ResolveManyRunsInParallelWithinWorkerLimit(t *testing.T) {
	var inFlight, peak int32
	source := &stubSource{fn: func(symbol string) dto.PriceQuote {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		return dto.PriceQuote{LastPrice: 1, Found: true}
	}}
	svc := NewPriceService(logger.NewNop(), source, nil, 5, time.Minute)

	names := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		names = append(names, fmt.Sprintf("SYM%d", i))
	}

	start := time.Now()
	quotes := svc.ResolveMany(context.Background(), names)
	elapsed := time.Since(start)

	assert.Len(t, quotes, 10)
	for _, sym := range names {
		assert.True(t, quotes[sym].Found, sym)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&peak))
	// two rounds of five, far below the serial second
	assert.Less(t, elapsed, 600*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

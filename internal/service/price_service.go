package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/common"
	"trading-panel/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultPriceWorkers = 5

type PriceService interface {
	contract.PriceResolver
	LastPrice(symbol string) (float64, bool)
	// Enabled is false when no price source is configured; every lookup then misses.
	Enabled() bool
}

type priceService struct {
	log           *logger.Logger
	source        contract.PriceSource
	inmemoryCache cache.Cache
	workers       int
	lastPriceTTL  time.Duration
}

func NewPriceService(log *logger.Logger, source contract.PriceSource, inmemoryCache cache.Cache, workers int, lastPriceTTL time.Duration) PriceService {
	if workers <= 0 {
		workers = defaultPriceWorkers
	}
	return &priceService{
		log:           log,
		source:        source,
		inmemoryCache: inmemoryCache,
		workers:       workers,
		lastPriceTTL:  lastPriceTTL,
	}
}

func (s *priceService) Enabled() bool {
	return s.source != nil
}

func (s *priceService) Resolve(ctx context.Context, symbol string) dto.PriceQuote {
	quotes := s.ResolveMany(ctx, []string{symbol})
	return quotes[normalizeSymbol(symbol)]
}

// ResolveMany looks up every distinct symbol in parallel and waits for all of them.
// A failing or panicking lookup only affects its own symbol.
func (s *priceService) ResolveMany(ctx context.Context, symbols []string) map[string]dto.PriceQuote {
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		n := normalizeSymbol(sym)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}

	var mu sync.Mutex
	quotes := make(map[string]dto.PriceQuote, len(unique))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, sym := range unique {
		sym := sym
		g.Go(func() error {
			quote := s.resolveSafe(ctx, sym)
			mu.Lock()
			quotes[sym] = quote
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

func (s *priceService) resolveSafe(ctx context.Context, symbol string) (quote dto.PriceQuote) {
	quote = dto.PriceQuote{Symbol: symbol}
	if s.source == nil {
		return quote
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Price lookup panicked",
				logger.StringField("symbol", symbol),
				logger.StringField("panic", fmt.Sprint(r)))
			quote = dto.PriceQuote{Symbol: symbol}
		}
	}()

	quote = s.source.ResolvePrice(ctx, symbol)
	quote.Symbol = symbol
	if !quote.Found {
		s.log.DebugContext(ctx, "Price unavailable", logger.StringField("symbol", symbol))
		return quote
	}
	if s.inmemoryCache != nil {
		s.inmemoryCache.Set(fmt.Sprintf(common.KEY_LAST_PRICE, symbol), quote.LastPrice, s.lastPriceTTL)
	}
	return quote
}

// LastPrice returns the most recent price seen for symbol, if still fresh.
func (s *priceService) LastPrice(symbol string) (float64, bool) {
	return cache.GetFromCache[float64](s.inmemoryCache, fmt.Sprintf(common.KEY_LAST_PRICE, normalizeSymbol(symbol)))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

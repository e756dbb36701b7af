package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"trading-panel/internal/dto"
	"trading-panel/internal/repository"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/common"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"
)

type ScreenerListener func(ctx context.Context, pairs []dto.ScreenerPair)

type ScreenerService interface {
	// Scan returns pairs whose absolute 24h change is at least minChange,
	// sorted by absolute change descending. limit <= 0 means no limit.
	Scan(ctx context.Context, minChange float64, limit int) []dto.ScreenerPair
	// Refresh bypasses the cache, stores the new ranking and notifies listeners
	// with the default threshold and limit.
	Refresh(ctx context.Context) ([]dto.ScreenerPair, error)
	Subscribe(fn ScreenerListener)
	Defaults() (float64, int)
}

type screenerService struct {
	log           *logger.Logger
	stakanRepo    repository.StakanRepository
	inmemoryCache cache.Cache
	cacheDuration time.Duration
	minChange     float64
	limit         int

	mu        sync.RWMutex
	lastKnown []dto.ScreenerPair
	listeners []ScreenerListener
}

func NewScreenerService(
	log *logger.Logger,
	stakanRepo repository.StakanRepository,
	inmemoryCache cache.Cache,
	cacheDuration time.Duration,
	minChange float64,
	limit int,
) ScreenerService {
	return &screenerService{
		log:           log,
		stakanRepo:    stakanRepo,
		inmemoryCache: inmemoryCache,
		cacheDuration: cacheDuration,
		minChange:     minChange,
		limit:         limit,
	}
}

func (s *screenerService) Defaults() (float64, int) {
	return s.minChange, s.limit
}

func (s *screenerService) Scan(ctx context.Context, minChange float64, limit int) []dto.ScreenerPair {
	pairs, ok := cache.GetFromCache[[]dto.ScreenerPair](s.inmemoryCache, common.KEY_SCREENER_RESULT)
	if !ok {
		fetched, err := s.fetch(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "Screener upstream failed, serving last known ranking", logger.ErrorField(err))
			s.mu.RLock()
			pairs = s.lastKnown
			s.mu.RUnlock()
			// hold the fallback for a cache window so an outage does not hit upstream on every scan
			s.inmemoryCache.Set(common.KEY_SCREENER_RESULT, pairs, s.cacheDuration)
		} else {
			pairs = fetched
		}
	}
	return RankPairs(pairs, minChange, limit)
}

func (s *screenerService) Refresh(ctx context.Context) ([]dto.ScreenerPair, error) {
	pairs, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	ranked := RankPairs(pairs, s.minChange, s.limit)
	s.mu.RLock()
	listeners := make([]ScreenerListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		s.notifyListener(ctx, fn, ranked)
	}
	return ranked, nil
}

func (s *screenerService) notifyListener(ctx context.Context, fn ScreenerListener, pairs []dto.ScreenerPair) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Screener listener panicked", logger.Field("panic", r))
		}
	}()
	out := make([]dto.ScreenerPair, len(pairs))
	copy(out, pairs)
	fn(ctx, out)
}

func (s *screenerService) Subscribe(fn ScreenerListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// fetch reads the upstream ranking and keeps USDT pairs, one per exchange code.
func (s *screenerService) fetch(ctx context.Context) ([]dto.ScreenerPair, error) {
	resp, err := s.stakanRepo.GetScreener(ctx)
	if err != nil {
		return nil, err
	}

	now := utils.TimeNowUTC()
	seen := make(map[string]struct{}, len(resp.Result))
	pairs := make([]dto.ScreenerPair, 0, len(resp.Result))
	for _, item := range resp.Result {
		code := strings.ToUpper(strings.TrimSpace(item.Symbol.ExchangeCode))
		if code == "" || !strings.HasSuffix(code, common.QUOTE_USDT) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		base := strings.ToUpper(item.Symbol.BaseAsset)
		if base == "" {
			base = strings.TrimSuffix(code, common.QUOTE_USDT)
		}
		pairs = append(pairs, dto.ScreenerPair{
			Symbol:        code,
			BaseAsset:     base,
			ChangePercent: item.Ticker.PriceChangePercent,
			PriceUSDT:     item.PriceInUSDT,
			VolumeUSDT:    item.VolumeInUSDT,
			UpdatedAt:     now,
		})
	}

	s.inmemoryCache.Set(common.KEY_SCREENER_RESULT, pairs, s.cacheDuration)
	s.mu.Lock()
	s.lastKnown = pairs
	s.mu.Unlock()

	s.log.DebugContext(ctx, "Screener refreshed", logger.IntField("pairs", len(pairs)))
	return pairs, nil
}

// RankPairs filters by absolute change and orders the result, largest move first.
func RankPairs(pairs []dto.ScreenerPair, minChange float64, limit int) []dto.ScreenerPair {
	out := make([]dto.ScreenerPair, 0, len(pairs))
	for _, p := range pairs {
		if math.Abs(p.ChangePercent) >= minChange {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ChangePercent) > math.Abs(out[j].ChangePercent)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

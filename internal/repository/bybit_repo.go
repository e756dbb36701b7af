package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trading-panel/config"
	"trading-panel/internal/dto"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/common"
	"trading-panel/pkg/httpclient"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/ratelimit"
)

const (
	bybitStatusTrading   = "Trading"
	instrumentsCacheKey  = "bybit:instruments:%s"
	instrumentsCacheTTL  = 10 * time.Minute
	instrumentsPageLimit = "1000"
)

// BybitRepository reads public market data. ResolvePrice is the PriceSource used by the engine.
type BybitRepository interface {
	GetTicker(ctx context.Context, category, symbol string) (*dto.BybitTicker, error)
	GetInstruments(ctx context.Context, category string) ([]dto.BybitInstrument, error)
	ResolvePrice(ctx context.Context, symbol string) dto.PriceQuote
}

type bybitRepository struct {
	httpClient    httpclient.HTTPClient
	cfg           *config.Config
	logger        *logger.Logger
	inmemoryCache cache.Cache
	limiter       *ratelimit.TokenLimiter
}

func NewBybitRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) BybitRepository {
	return newBybitRepository(cfg, log, inmemoryCache, httpclient.New(cfg.Bybit.BaseURL, cfg.Bybit.Timeout))
}

func newBybitRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache, client httpclient.HTTPClient) *bybitRepository {
	return &bybitRepository{
		httpClient:    client,
		cfg:           cfg,
		logger:        log,
		inmemoryCache: inmemoryCache,
		limiter:       ratelimit.NewTokenLimiter(cfg.Bybit.MaxRequestPerMinute),
	}
}

func (r *bybitRepository) categories() []string {
	if len(r.cfg.Bybit.Categories) > 0 {
		return r.cfg.Bybit.Categories
	}
	return []string{"linear", "inverse"}
}

// GetTicker returns nil without error when the exchange does not know the symbol.
func (r *bybitRepository) GetTicker(ctx context.Context, category, symbol string) (*dto.BybitTicker, error) {
	if err := r.limiter.Wait(ctx, 1); err != nil {
		return nil, err
	}

	var respData dto.BybitResponse[dto.BybitTicker]
	resp, err := r.httpClient.Get(ctx, "/market/tickers", map[string]string{
		"category": category,
		"symbol":   symbol,
	}, nil, &respData)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker from bybit: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit api returned status: %d", resp.StatusCode)
	}
	if respData.RetCode != 0 || len(respData.Result.List) == 0 {
		return nil, nil
	}
	return &respData.Result.List[0], nil
}

// GetInstruments lists every instrument of a category, following pagination. Cached for a while.
func (r *bybitRepository) GetInstruments(ctx context.Context, category string) ([]dto.BybitInstrument, error) {
	key := fmt.Sprintf(instrumentsCacheKey, category)
	if cached, ok := cache.GetFromCache[[]dto.BybitInstrument](r.inmemoryCache, key); ok {
		return cached, nil
	}

	var (
		instruments []dto.BybitInstrument
		cursor      string
	)
	for {
		if err := r.limiter.Wait(ctx, 1); err != nil {
			return nil, err
		}
		params := map[string]string{
			"category": category,
			"limit":    instrumentsPageLimit,
		}
		if cursor != "" {
			params["cursor"] = cursor
		}

		var respData dto.BybitResponse[dto.BybitInstrument]
		resp, err := r.httpClient.Get(ctx, "/market/instruments-info", params, nil, &respData)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch instruments from bybit: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bybit api returned status: %d", resp.StatusCode)
		}
		if respData.RetCode != 0 {
			return nil, fmt.Errorf("bybit api error %d: %s", respData.RetCode, respData.RetMsg)
		}

		instruments = append(instruments, respData.Result.List...)
		cursor = respData.Result.NextPageCursor
		if cursor == "" || len(respData.Result.List) == 0 {
			break
		}
	}

	if r.inmemoryCache != nil {
		r.inmemoryCache.Set(key, instruments, instrumentsCacheTTL)
	}
	return instruments, nil
}

// SymbolVariants lists the tickers tried for a user supplied name, in order.
func SymbolVariants(symbol string) []string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return nil
	}
	candidates := []string{
		s,
		s + common.SUFFIX_PERP,
		strings.ReplaceAll(s, common.QUOTE_USDT, "") + common.QUOTE_USDT,
		s + common.QUOTE_USD,
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}

func cleanSymbol(s string) string {
	s = strings.ReplaceAll(s, common.QUOTE_USDT, "")
	s = strings.ReplaceAll(s, common.QUOTE_USD, "")
	return strings.ReplaceAll(s, common.SUFFIX_PERP, "")
}

// MatchInstrument picks the tradable instrument for symbol: exact base match first, then substring.
func MatchInstrument(symbol string, instruments []dto.BybitInstrument) (dto.BybitInstrument, bool) {
	search := strings.ToUpper(strings.TrimSpace(symbol))
	searchClean := cleanSymbol(search)
	if searchClean == "" {
		return dto.BybitInstrument{}, false
	}

	var loose *dto.BybitInstrument
	for i := range instruments {
		inst := instruments[i]
		if inst.Status != bybitStatusTrading {
			continue
		}
		symbolClean := cleanSymbol(inst.Symbol)
		if symbolClean == searchClean {
			return inst, true
		}
		if loose == nil && (strings.Contains(symbolClean, searchClean) || strings.Contains(inst.Symbol, search)) {
			loose = &instruments[i]
		}
	}
	if loose != nil {
		return *loose, true
	}
	return dto.BybitInstrument{}, false
}

func (r *bybitRepository) ResolvePrice(ctx context.Context, symbol string) dto.PriceQuote {
	quote := dto.PriceQuote{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
	if quote.Symbol == "" {
		return quote
	}

	for _, category := range r.categories() {
		for _, variant := range SymbolVariants(quote.Symbol) {
			if ctx.Err() != nil {
				return quote
			}
			ticker, err := r.GetTicker(ctx, category, variant)
			if err != nil {
				r.logger.DebugContext(ctx, "Ticker lookup failed",
					logger.StringField("symbol", variant),
					logger.StringField("category", category),
					logger.ErrorField(err))
				continue
			}
			if ticker == nil {
				continue
			}
			if q, ok := tickerToQuote(quote.Symbol, category, ticker); ok {
				return q
			}
		}
	}

	for _, category := range r.categories() {
		instruments, err := r.GetInstruments(ctx, category)
		if err != nil {
			r.logger.WarnContext(ctx, "Instrument scan failed",
				logger.StringField("category", category),
				logger.ErrorField(err))
			continue
		}
		inst, ok := MatchInstrument(quote.Symbol, instruments)
		if !ok {
			continue
		}
		ticker, err := r.GetTicker(ctx, category, inst.Symbol)
		if err != nil || ticker == nil {
			continue
		}
		if q, ok := tickerToQuote(quote.Symbol, category, ticker); ok {
			return q
		}
	}

	return quote
}

func tickerToQuote(symbol, category string, t *dto.BybitTicker) (dto.PriceQuote, bool) {
	last, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil || last <= 0 {
		return dto.PriceQuote{Symbol: symbol}, false
	}
	mark, _ := strconv.ParseFloat(t.MarkPrice, 64)
	index, _ := strconv.ParseFloat(t.IndexPrice, 64)
	change, _ := strconv.ParseFloat(t.Price24hPcnt, 64)

	return dto.PriceQuote{
		Symbol:         symbol,
		ResolvedSymbol: t.Symbol,
		Category:       category,
		LastPrice:      last,
		MarkPrice:      mark,
		IndexPrice:     index,
		Change24h:      change * 100,
		Found:          true,
	}, true
}

package repository

import (
	"context"
	"fmt"
	"net/http"

	"trading-panel/config"
	"trading-panel/internal/dto"
	"trading-panel/pkg/httpclient"
	"trading-panel/pkg/logger"
)

// StakanRepository fetches the raw 24h change ranking used by the volatility screener.
type StakanRepository interface {
	GetScreener(ctx context.Context) (*dto.StakanResponse, error)
}

type stakanRepository struct {
	httpClient httpclient.HTTPClient
	logger     *logger.Logger
}

func NewStakanRepository(cfg *config.Config, log *logger.Logger) StakanRepository {
	return &stakanRepository{
		httpClient: httpclient.New(cfg.Screener.BaseURL, cfg.Screener.Timeout, httpclient.WithRetry(1, 0)),
		logger:     log,
	}
}

func (r *stakanRepository) GetScreener(ctx context.Context) (*dto.StakanResponse, error) {
	var respData dto.StakanResponse
	resp, err := r.httpClient.Get(ctx, "", nil, nil, &respData)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "Screener API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", truncate(string(resp.Body), 256)))
		return nil, fmt.Errorf("screener api returned status: %d", resp.StatusCode)
	}
	if respData.Result == nil {
		return nil, fmt.Errorf("screener response has no result list")
	}

	return &respData, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

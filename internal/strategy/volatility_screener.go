package strategy

import (
	"context"
	"fmt"

	"trading-panel/internal/contract"
	"trading-panel/pkg/logger"
)

type VolatilityScreenerStrategy struct {
	logger   *logger.Logger
	screener contract.ScreenerRefresher
}

func NewVolatilityScreenerStrategy(logger *logger.Logger, screener contract.ScreenerRefresher) JobExecutionStrategy {
	return &VolatilityScreenerStrategy{
		logger:   logger,
		screener: screener,
	}
}

func (s *VolatilityScreenerStrategy) GetType() JobType {
	return JobTypeVolatilityScreener
}

func (s *VolatilityScreenerStrategy) Execute(ctx context.Context) (JobResult, error) {
	pairs, err := s.screener.Refresh(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Volatility screener refresh failed", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to refresh screener: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: fmt.Sprintf("%d pairs", len(pairs))}, nil
}

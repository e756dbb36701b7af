package strategy

import (
	"context"
	"fmt"
	"sync/atomic"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/internal/helper"
	"trading-panel/internal/model"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	"github.com/google/uuid"
)

// PositionTriggerStrategy closes active positions whose take profit or stop
// loss has been reached and publishes a projection of every position it saw.
type PositionTriggerStrategy struct {
	logger    *logger.Logger
	positions contract.PositionStore
	prices    contract.PriceResolver
	publisher contract.ProjectionPublisher

	running atomic.Bool
}

func NewPositionTriggerStrategy(
	logger *logger.Logger,
	positions contract.PositionStore,
	prices contract.PriceResolver,
	publisher contract.ProjectionPublisher,
) JobExecutionStrategy {
	return &PositionTriggerStrategy{
		logger:    logger,
		positions: positions,
		prices:    prices,
		publisher: publisher,
	}
}

func (s *PositionTriggerStrategy) GetType() JobType {
	return JobTypePositionTrigger
}

// Execute runs one cycle. A failed list yields an empty cycle; a failure on
// one position never stops the others.
func (s *PositionTriggerStrategy) Execute(ctx context.Context) (JobResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return skipped("previous cycle still running"), nil
	}
	defer s.running.Store(false)

	summary := dto.PositionCycleSummary{CycleID: uuid.NewString()}
	log := s.logger.With(logger.StringField("cycle_id", summary.CycleID), logger.StringField("job", string(s.GetType())))
	ctx = logger.NewContext(ctx, log)

	positions, err := s.positions.ListActive(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list active positions", logger.ErrorField(err))
		return resultOf(JOB_EXIT_CODE_FAILED, summary), fmt.Errorf("failed to list active positions: %w", err)
	}
	if len(positions) == 0 {
		s.publish(ctx, nil)
		return skipped("no active positions"), nil
	}

	quotes := s.prices.ResolveMany(ctx, helper.UniqueNames(positions))
	projections := make([]dto.PositionProjection, 0, len(positions))

	for _, position := range positions {
		if !utils.ShouldContinue(ctx, log) {
			break
		}
		summary.Evaluated++

		proj, err := s.evaluate(ctx, position, quotes[position.Name])
		projections = append(projections, proj)
		switch {
		case err != nil:
			summary.Failed++
			log.ErrorContext(ctx, "Failed to evaluate position",
				logger.UintField("position_id", position.ID),
				logger.StringField("name", position.Name),
				logger.ErrorField(err))
		case proj.Status == dto.PositionStatusPriceUnavailable:
			summary.Unavailable++
		case proj.Status == dto.PositionStatusTakeProfit || proj.Status == dto.PositionStatusStopLoss:
			summary.Closed++
		}
	}
	s.publish(ctx, projections)

	log.DebugContext(ctx, "Position cycle finished",
		logger.IntField("evaluated", summary.Evaluated),
		logger.IntField("closed", summary.Closed),
		logger.IntField("unavailable", summary.Unavailable),
		logger.IntField("failed", summary.Failed))

	if summary.Failed > 0 {
		return resultOf(JOB_EXIT_CODE_PARTIAL_SUCCESS, summary), nil
	}
	return resultOf(JOB_EXIT_CODE_SUCCESS, summary), nil
}

func (s *PositionTriggerStrategy) evaluate(ctx context.Context, position model.Position, quote dto.PriceQuote) (proj dto.PositionProjection, err error) {
	now := utils.TimeNowUTC()
	proj = helper.NewProjection(position, quote, now)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic evaluating position %d: %v", position.ID, r)
		}
	}()

	if !quote.Found {
		return proj, nil
	}
	reason, hit := helper.EvaluateTrigger(position, quote.LastPrice)
	if !hit {
		return proj, nil
	}

	closure := helper.NewClosure(position, reason, quote.LastPrice, now)
	closed, err := s.positions.ClosePosition(ctx, position, closure)
	if err != nil {
		return proj, err
	}
	if !closed {
		proj.Status = dto.PositionStatusClosed
		return proj, nil
	}

	proj.Status = dto.PositionStatusStopLoss
	if reason == model.CloseReasonTakeProfit {
		proj.Status = dto.PositionStatusTakeProfit
	}
	proj.BalancePercent = closure.FinalPnl
	return proj, nil
}

func (s *PositionTriggerStrategy) publish(ctx context.Context, projections []dto.PositionProjection) {
	if s.publisher == nil {
		return
	}
	if projections == nil {
		projections = []dto.PositionProjection{}
	}
	s.publisher.PublishPositions(ctx, projections)
}

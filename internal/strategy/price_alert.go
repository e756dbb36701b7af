package strategy

import (
	"context"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	"github.com/google/uuid"
)

// PriceAlertStrategy refreshes armed alerts and fires the ones whose target is reached.
type PriceAlertStrategy struct {
	logger    *logger.Logger
	alerts    contract.AlertStore
	prices    contract.PriceResolver
	notifier  contract.Notifier
	publisher contract.ProjectionPublisher
}

func NewPriceAlertStrategy(
	logger *logger.Logger,
	alerts contract.AlertStore,
	prices contract.PriceResolver,
	notifier contract.Notifier,
	publisher contract.ProjectionPublisher,
) JobExecutionStrategy {
	return &PriceAlertStrategy{
		logger:    logger,
		alerts:    alerts,
		prices:    prices,
		notifier:  notifier,
		publisher: publisher,
	}
}

func (s *PriceAlertStrategy) GetType() JobType {
	return JobTypePriceAlert
}

// Execute evaluates a snapshot of the registry. An alert is claimed before the
// notification goes out, so a concurrent cycle can never fire it twice.
func (s *PriceAlertStrategy) Execute(ctx context.Context) (JobResult, error) {
	alerts := s.alerts.Snapshot()
	if len(alerts) == 0 {
		return skipped("no armed alerts"), nil
	}

	summary := dto.AlertCycleSummary{CycleID: uuid.NewString()}
	log := s.logger.With(logger.StringField("cycle_id", summary.CycleID), logger.StringField("job", string(s.GetType())))
	ctx = logger.NewContext(ctx, log)

	names := make([]string, 0, len(alerts))
	for _, a := range alerts {
		names = append(names, a.Name)
	}
	quotes := s.prices.ResolveMany(ctx, names)

	for _, alert := range alerts {
		if !utils.ShouldContinue(ctx, log) {
			break
		}
		quote := quotes[alert.Name]
		if !quote.Found {
			continue
		}
		summary.Evaluated++
		if !s.alerts.UpdatePrice(alert.ID, quote.LastPrice) {
			// removed by the user while prices were resolving
			continue
		}
		if !alert.Triggered(quote.LastPrice) {
			continue
		}

		claimed, ok := s.alerts.Claim(alert.ID)
		if !ok {
			continue
		}
		summary.Triggered++
		claimed.CurrentPrice = quote.LastPrice

		log.InfoContext(ctx, "Price alert triggered",
			logger.StringField("alert_id", claimed.ID),
			logger.StringField("name", claimed.Name),
			logger.Float64Field("target_price", claimed.TargetPrice),
			logger.Float64Field("price", quote.LastPrice))
		s.notifier.NotifyAlertTriggered(ctx, claimed, quote.LastPrice)
	}

	if s.publisher != nil {
		s.publisher.PublishAlerts(ctx, s.alerts.Snapshot())
	}
	return resultOf(JOB_EXIT_CODE_SUCCESS, summary), nil
}

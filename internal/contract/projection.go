package contract

import (
	"context"

	"trading-panel/internal/dto"
)

// ProjectionPublisher receives UI-facing snapshots produced by the loops.
type ProjectionPublisher interface {
	PublishPositions(ctx context.Context, projections []dto.PositionProjection)
	PublishAlerts(ctx context.Context, alerts []dto.Alert)
	PublishScreener(ctx context.Context, pairs []dto.ScreenerPair)
}

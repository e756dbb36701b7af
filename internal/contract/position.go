package contract

import (
	"context"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
)

// PositionStore is what the trigger engine needs from the position lifecycle.
type PositionStore interface {
	ListActive(ctx context.Context) ([]model.Position, error)
	// ClosePosition persists the terminal state and announces it. It reports
	// false when the position was already closed by someone else.
	ClosePosition(ctx context.Context, position model.Position, closure dto.PositionClosure) (bool, error)
}

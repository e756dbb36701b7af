package contract

import (
	"context"

	"trading-panel/internal/dto"
)

type ScreenerRefresher interface {
	Refresh(ctx context.Context) ([]dto.ScreenerPair, error)
}

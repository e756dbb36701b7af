package contract

import (
	"context"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
)

type Notifier interface {
	Broadcast(ctx context.Context, message string) dto.BroadcastResult
	NotifyPositionOpened(ctx context.Context, position model.Position) dto.BroadcastResult
	NotifyPositionClosed(ctx context.Context, position model.Position, closure dto.PositionClosure) dto.BroadcastResult
	NotifyAlertTriggered(ctx context.Context, alert dto.Alert, price float64) dto.BroadcastResult
}

package dto

import (
	"time"

	"trading-panel/internal/model"
)

type CreatePositionRequest struct {
	Name       string   `json:"name" validate:"required,max=64"`
	PosType    string   `json:"pos_type" validate:"required,oneof=long short"`
	Percent    *int     `json:"percent" validate:"required,min=1,max=100"`
	Cross      *int     `json:"cross" validate:"omitempty,min=0"`
	EntryPrice *float64 `json:"entry_price" validate:"omitempty,gt=0"`
	TakeProfit float64  `json:"take_profit" validate:"gte=0,nefield=StopLoss"`
	StopLoss   float64  `json:"stop_loss" validate:"gte=0"`
}

// UpdatePositionRequest is a partial update; nil fields are left untouched.
type UpdatePositionRequest struct {
	Percent    *int     `json:"percent" validate:"omitempty,min=1,max=100"`
	Cross      *int     `json:"cross" validate:"omitempty,min=0"`
	TakeProfit *float64 `json:"take_profit" validate:"omitempty,gte=0"`
	StopLoss   *float64 `json:"stop_loss" validate:"omitempty,gte=0"`
}

func (r UpdatePositionRequest) IsEmpty() bool {
	return r.Percent == nil && r.Cross == nil && r.TakeProfit == nil && r.StopLoss == nil
}

type ClosePositionRequest struct {
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
}

type GetPositionsParam struct {
	IDs        []uint
	Names      []string
	ActiveOnly bool
	Limit      int
}

// PositionClosure is the terminal state written when a position closes.
type PositionClosure struct {
	Reason     model.CloseReason
	ClosePrice float64
	FinalPnl   float64
	ClosedAt   time.Time
}

type PositionStatus string

const (
	PositionStatusActive           PositionStatus = "active"
	PositionStatusPriceUnavailable PositionStatus = "price_unavailable"
	PositionStatusTakeProfit       PositionStatus = "tp"
	PositionStatusStopLoss         PositionStatus = "sl"
	PositionStatusClosed           PositionStatus = "closed"
)

// PositionProjection is what the UI renders for one position after a cycle.
type PositionProjection struct {
	ID             uint           `json:"id"`
	Name           string         `json:"name"`
	PosType        string         `json:"pos_type"`
	Percent        int            `json:"percent"`
	Cross          *int           `json:"cross"`
	EntryPrice     float64        `json:"entry_price"`
	TakeProfit     float64        `json:"take_profit"`
	StopLoss       float64        `json:"stop_loss"`
	LastPrice      float64        `json:"last_price"`
	PnlPercent     float64        `json:"pnl_percent"`
	BalancePercent float64        `json:"balance_percent"`
	Status         PositionStatus `json:"status"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type PositionCycleSummary struct {
	CycleID     string `json:"cycle_id"`
	Evaluated   int    `json:"evaluated"`
	Unavailable int    `json:"unavailable"`
	Closed      int    `json:"closed"`
	Failed      int    `json:"failed"`
}

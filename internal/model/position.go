package model

import "time"

type PositionType string

const (
	PositionLong  PositionType = "long"
	PositionShort PositionType = "short"
)

func (t PositionType) Valid() bool {
	return t == PositionLong || t == PositionShort
}

// Direction is +1 for long and -1 for short.
func (t PositionType) Direction() float64 {
	if t == PositionShort {
		return -1
	}
	return 1
}

type CloseReason string

const (
	CloseReasonTakeProfit CloseReason = "tp"
	CloseReasonStopLoss   CloseReason = "sl"
	CloseReasonManual     CloseReason = "manual"
)

type Position struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(64);not null;index" json:"name"`
	PosType     PositionType `gorm:"type:varchar(10);not null;check:chk_positions_pos_type,pos_type IN ('long','short')" json:"pos_type"`
	Percent     int          `gorm:"not null;check:chk_positions_percent,percent BETWEEN 1 AND 100" json:"percent"`
	Cross       *int         `gorm:"column:cross_leverage;check:chk_positions_cross,cross_leverage IS NULL OR cross_leverage >= 0" json:"cross"`
	EntryPrice  float64      `gorm:"not null;check:chk_positions_entry_price,entry_price > 0" json:"entry_price"`
	TakeProfit  float64      `gorm:"not null;check:chk_positions_take_profit,take_profit >= 0 AND take_profit <> stop_loss" json:"take_profit"`
	StopLoss    float64      `gorm:"not null;check:chk_positions_stop_loss,stop_loss >= 0" json:"stop_loss"`
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`
	CloseReason *CloseReason `gorm:"type:varchar(10)" json:"close_reason"`
	ClosePrice  *float64     `json:"close_price"`
	FinalPnl    *float64     `json:"final_pnl"`
	ClosedAt    *time.Time   `json:"closed_at"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// Leverage treats a missing or zero cross as 1x.
func (p Position) Leverage() float64 {
	if p.Cross == nil || *p.Cross <= 0 {
		return 1
	}
	return float64(*p.Cross)
}

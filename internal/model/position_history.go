package model

import (
	"time"

	"gorm.io/datatypes"
)

// PositionHistory is a full snapshot of a position taken on every write.
type PositionHistory struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	PositionID uint         `gorm:"not null;index" json:"position_id"`
	Name       string       `gorm:"type:varchar(64);not null" json:"name"`
	PosType    PositionType `gorm:"type:varchar(10);not null" json:"pos_type"`
	Percent    int          `gorm:"not null" json:"percent"`
	Cross      *int         `gorm:"column:cross_leverage" json:"cross"`
	EntryPrice float64      `gorm:"not null" json:"entry_price"`
	TakeProfit float64      `gorm:"not null" json:"take_profit"`
	StopLoss   float64      `gorm:"not null" json:"stop_loss"`
	IsActive   bool         `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (PositionHistory) TableName() string {
	return "position_history"
}

func NewPositionHistory(p Position) *PositionHistory {
	return &PositionHistory{
		PositionID: p.ID,
		Name:       p.Name,
		PosType:    p.PosType,
		Percent:    p.Percent,
		Cross:      p.Cross,
		EntryPrice: p.EntryPrice,
		TakeProfit: p.TakeProfit,
		StopLoss:   p.StopLoss,
		IsActive:   p.IsActive,
	}
}

type PositionAction string

const (
	PositionActionCreate PositionAction = "CREATE"
	PositionActionUpdate PositionAction = "UPDATE"
	PositionActionClose  PositionAction = "CLOSE"
)

// PositionLog is an append-only audit entry.
type PositionLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PositionID uint           `gorm:"not null;index" json:"position_id"`
	Action     PositionAction `gorm:"type:varchar(20);not null" json:"action"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (PositionLog) TableName() string {
	return "position_logs"
}

package dto

import "time"

type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

// Alert is a one-shot price trigger on an arbitrary instrument.
type Alert struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	TargetPrice  float64        `json:"target_price"`
	CurrentPrice float64        `json:"current_price"`
	Condition    AlertCondition `json:"condition"`
	CreatedAt    time.Time      `json:"created_at"`
	Active       bool           `json:"active"`
}

// Triggered evaluates the alert against price.
func (a Alert) Triggered(price float64) bool {
	switch a.Condition {
	case AlertAbove:
		return price >= a.TargetPrice
	case AlertBelow:
		return price <= a.TargetPrice
	}
	return false
}

type CreateAlertRequest struct {
	Name        string  `json:"name" validate:"required,max=64"`
	TargetPrice float64 `json:"target_price" validate:"gt=0"`
}

type AlertCycleSummary struct {
	CycleID   string `json:"cycle_id"`
	Evaluated int    `json:"evaluated"`
	Triggered int    `json:"triggered"`
}

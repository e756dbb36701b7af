package contract

import "trading-panel/internal/dto"

// AlertStore is the in-memory registry of armed price alerts.
type AlertStore interface {
	Snapshot() []dto.Alert
	UpdatePrice(id string, price float64) bool
	// Claim removes the alert and reports whether this caller removed it.
	Claim(id string) (dto.Alert, bool)
}

package helper

import (
	"time"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
	"trading-panel/pkg/utils"
)

// PnlPercent is the raw price move relative to entry, signed by direction.
func PnlPercent(posType model.PositionType, entryPrice, currentPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return (currentPrice - entryPrice) / entryPrice * 100 * posType.Direction()
}

// BalancePercent scales the move by leverage and the share of balance committed,
// rounded to two decimals.
func BalancePercent(p model.Position, currentPrice float64) float64 {
	pnl := PnlPercent(p.PosType, p.EntryPrice, currentPrice)
	return utils.RoundTo(pnl*p.Leverage()*(float64(p.Percent)/100), 2)
}

// EvaluateTrigger reports whether currentPrice hits the take profit or stop loss.
// Take profit is checked first, so a price satisfying both closes as tp.
func EvaluateTrigger(p model.Position, currentPrice float64) (model.CloseReason, bool) {
	switch p.PosType {
	case model.PositionLong:
		if p.TakeProfit > 0 && currentPrice >= p.TakeProfit {
			return model.CloseReasonTakeProfit, true
		}
		if p.StopLoss > 0 && currentPrice <= p.StopLoss {
			return model.CloseReasonStopLoss, true
		}
	case model.PositionShort:
		if p.TakeProfit > 0 && currentPrice <= p.TakeProfit {
			return model.CloseReasonTakeProfit, true
		}
		if p.StopLoss > 0 && currentPrice >= p.StopLoss {
			return model.CloseReasonStopLoss, true
		}
	}
	return "", false
}

func NewClosure(p model.Position, reason model.CloseReason, price float64, at time.Time) dto.PositionClosure {
	closure := dto.PositionClosure{
		Reason:     reason,
		ClosePrice: price,
		ClosedAt:   at,
	}
	if price > 0 {
		closure.FinalPnl = BalancePercent(p, price)
	}
	return closure
}

func NewProjection(p model.Position, quote dto.PriceQuote, at time.Time) dto.PositionProjection {
	proj := dto.PositionProjection{
		ID:         p.ID,
		Name:       p.Name,
		PosType:    string(p.PosType),
		Percent:    p.Percent,
		Cross:      p.Cross,
		EntryPrice: p.EntryPrice,
		TakeProfit: p.TakeProfit,
		StopLoss:   p.StopLoss,
		Status:     dto.PositionStatusActive,
		UpdatedAt:  at,
	}
	if !p.IsActive {
		proj.Status = dto.PositionStatusClosed
		if p.FinalPnl != nil {
			proj.BalancePercent = *p.FinalPnl
		}
		if p.ClosePrice != nil {
			proj.LastPrice = *p.ClosePrice
		}
		return proj
	}
	if !quote.Found {
		proj.Status = dto.PositionStatusPriceUnavailable
		return proj
	}
	proj.LastPrice = quote.LastPrice
	proj.PnlPercent = utils.RoundTo(PnlPercent(p.PosType, p.EntryPrice, quote.LastPrice), 2)
	proj.BalancePercent = BalancePercent(p, quote.LastPrice)
	return proj
}

// UniqueNames returns the distinct instrument names of positions, in first-seen order.
func UniqueNames(positions []model.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	names := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	return names
}

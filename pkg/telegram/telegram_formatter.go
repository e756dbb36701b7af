package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"trading-panel/pkg/common"
	"trading-panel/pkg/utils"
)

// CloseKind is the reason shown in a close message.
type CloseKind string

const (
	TakeProfit CloseKind = "tp"
	StopLoss   CloseKind = "sl"
	Manual     CloseKind = "manual"
)

type OpenPositionMessage struct {
	Name       string
	PosType    string
	Cross      *int
	Percent    int
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	CreatedAt  time.Time
}

type ClosePositionMessage struct {
	ID         uint
	Name       string
	PosType    string
	Reason     CloseKind
	EntryPrice float64
	ExitPrice  float64
	FinalPnl   float64
	ClosedAt   time.Time
}

type PriceAlertMessage struct {
	Name         string
	TargetPrice  float64
	CurrentPrice float64
	Condition    string
	TriggeredAt  time.Time
}

func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func FormatOpenPosition(m OpenPositionMessage) string {
	posType := "📈 LONG"
	if m.PosType == "short" {
		posType = "📉 SHORT"
	}
	cross := "N/A"
	if m.Cross != nil {
		cross = fmt.Sprintf("x%d", *m.Cross)
	}

	var sb strings.Builder
	sb.WriteString("🎯 <b>OPEN NEW POSITION</b>\n\n")
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(m.Name)))
	sb.WriteString(fmt.Sprintf("Type: %s\n", posType))
	sb.WriteString(fmt.Sprintf("Cross: %s\n", cross))
	sb.WriteString(fmt.Sprintf("Percentage of balance: %d%%\n", m.Percent))
	sb.WriteString(fmt.Sprintf("Entry price: %s\n", FormatPrice(m.EntryPrice)))
	sb.WriteString(fmt.Sprintf("Take Profit: %s\n", FormatPrice(m.TakeProfit)))
	sb.WriteString(fmt.Sprintf("Stop Loss: %s\n", FormatPrice(m.StopLoss)))
	sb.WriteString("<b>DON'T FORGET TO SEND A SCREEN OF THE POSITION</b>\n")
	sb.WriteString(fmt.Sprintf("\n🕐 %s", m.CreatedAt.UTC().Format("01-02 15:04")))
	return sb.String()
}

func FormatClosePosition(m ClosePositionMessage) string {
	var emoji, reason string
	switch m.Reason {
	case TakeProfit:
		emoji, reason = "🎯", "HIT TP"
	case StopLoss:
		emoji, reason = "💥", "HIT SL"
	default:
		emoji, reason = "✋", "MANUAL CLOSE"
	}

	sign, color := "", "⚪"
	if m.FinalPnl > 0 {
		sign, color = "+", "🟢"
	} else if m.FinalPnl < 0 {
		color = "🔴"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>POSITION CLOSE</b>\n\n", emoji))
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(strings.ToUpper(m.Name))))
	sb.WriteString(fmt.Sprintf("ID: %d | %s\n", m.ID, strings.ToUpper(m.PosType)))
	sb.WriteString(fmt.Sprintf("HIT: <b>%s</b>\n", reason))
	sb.WriteString(fmt.Sprintf("Entry price: %s\n", FormatPrice(m.EntryPrice)))
	if m.ExitPrice > 0 {
		sb.WriteString(fmt.Sprintf("Exit price: %s\n", FormatPrice(m.ExitPrice)))
	}
	sb.WriteString(fmt.Sprintf("Realise P/L: %s <b>%s%.2f%%</b>\n\n", color, sign, m.FinalPnl))
	sb.WriteString(fmt.Sprintf("<i>Close: %s</i>", m.ClosedAt.UTC().Format("2006-01-02 15:04:05")))
	return sb.String()
}

func FormatPriceAlert(m PriceAlertMessage) string {
	name := strings.ToUpper(m.Name)
	var sb strings.Builder
	sb.WriteString("🎯 <b>Trigger price</b>\n\n")
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(name)))
	sb.WriteString(fmt.Sprintf("Trigger price: %s\n", FormatPrice(m.CurrentPrice)))
	sb.WriteString(fmt.Sprintf("Target: %s (%s)\n", FormatPrice(m.TargetPrice), m.Condition))
	sb.WriteString(fmt.Sprintf("Time: %s\n\n", m.TriggeredAt.UTC().Format("15:04:05")))
	sb.WriteString(fmt.Sprintf("<a href='%s'>Open Bybit</a>\n", fmt.Sprintf(common.BYBIT_TRADE_URL, name)))
	sb.WriteString(fmt.Sprintf("<a href='%s'>Open Binance</a>", fmt.Sprintf(common.BINANCE_TRADE_URL, BinancePair(name))))
	return sb.String()
}

// BinancePair turns BTCUSDT into BTC_USDT as used in Binance trade URLs.
func BinancePair(name string) string {
	if strings.HasSuffix(name, common.QUOTE_USDT) && !strings.Contains(name, "_") {
		return strings.TrimSuffix(name, common.QUOTE_USDT) + "_" + common.QUOTE_USDT
	}
	return name
}

// PositionLine is one row of the /positions summary.
type PositionLine struct {
	ID             uint
	Name           string
	PosType        string
	EntryPrice     float64
	LastPrice      float64
	BalancePercent float64
	PriceKnown     bool
}

func FormatPositionList(lines []PositionLine, at time.Time) string {
	if len(lines) == 0 {
		return "📭 No active positions."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 <b>ACTIVE POSITIONS (%d)</b>\n\n", len(lines)))
	for _, l := range lines {
		sb.WriteString(fmt.Sprintf("<b>#%d %s</b> %s\n", l.ID, html.EscapeString(l.Name), strings.ToUpper(l.PosType)))
		sb.WriteString(fmt.Sprintf("Entry: %s", FormatPrice(l.EntryPrice)))
		if !l.PriceKnown {
			sb.WriteString(" | Price: n/a\n\n")
			continue
		}
		sb.WriteString(fmt.Sprintf(" | Price: %s | P/L: %s\n\n", FormatPrice(l.LastPrice), utils.FormatPercentage(l.BalancePercent)))
	}
	sb.WriteString(fmt.Sprintf("<i>%s</i>", utils.PrettyDate(at)))
	return sb.String()
}

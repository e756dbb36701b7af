package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"trading-panel/pkg/logger"
	"trading-panel/pkg/telegram"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handlePositions(ctx context.Context, c telebot.Context) error {
	message, err := t.service.TelegramBotService.ActivePositionsMessage(ctx)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to build positions summary", logger.ErrorField(err))
		return t.sender.Reply(ctx, c, "⚠️ Positions are unavailable right now.")
	}
	return t.sender.Reply(ctx, c, message)
}

func (t *TelegramBotHandler) handleAlerts(ctx context.Context, c telebot.Context) error {
	alerts := t.service.AlertRegistry.List()
	if len(alerts) == 0 {
		return t.sender.Reply(ctx, c, "🔕 No armed price alerts.")
	}

	var sb strings.Builder
	sb.WriteString("⏰ <b>PRICE ALERTS</b>\n\n")
	for _, a := range alerts {
		sb.WriteString(fmt.Sprintf("<b>%s</b> %s %s (last %s)\n",
			html.EscapeString(a.Name), a.Condition,
			telegram.FormatPrice(a.TargetPrice), telegram.FormatPrice(a.CurrentPrice)))
	}
	return t.sender.Reply(ctx, c, sb.String())
}

func (t *TelegramBotHandler) handleNotifyAll(ctx context.Context, c telebot.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return t.sender.Reply(ctx, c, "Usage: /notify_all &lt;message&gt;")
	}

	result, err := t.service.TelegramBotService.NotifyAll(ctx, text)
	if err != nil {
		return t.sender.Reply(ctx, c, "⚠️ "+html.EscapeString(err.Error()))
	}
	return t.sender.Reply(ctx, c, fmt.Sprintf("📣 Sent %d/%d, failed %d, deactivated %d.",
		result.Sent, result.Total, result.Failed, len(result.Deactivated)))
}

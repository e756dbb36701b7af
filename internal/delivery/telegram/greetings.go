package telegram

import (
	"context"
	"strings"

	"trading-panel/internal/service"
	"trading-panel/pkg/logger"

	"gopkg.in/telebot.v3"
)

const helpMessage = `❓ <b>Trading Panel Bot</b>

You receive a message whenever a position is opened or closed and when a price alert fires.

<b>Commands</b>
/start - subscribe to notifications
/stop - unsubscribe
/positions - active positions with live P/L
/alerts - armed price alerts
/help - this message`

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	isNew, err := t.service.TelegramBotService.RegisterUser(ctx, service.BotUser{
		TelegramID: sender.ID,
		Username:   sender.Username,
		FirstName:  sender.FirstName,
		LastName:   sender.LastName,
	})
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to register user", logger.ErrorField(err), logger.Int64Field("telegram_id", sender.ID))
		return t.sender.Reply(ctx, c, "⚠️ Could not subscribe you right now, please try again later.")
	}

	greeting := "👋 Welcome back! Notifications are enabled."
	if isNew {
		greeting = "👋 <b>Welcome!</b> You are now subscribed to trading notifications."
	}
	return t.sender.Reply(ctx, c, greeting+"\n\n"+helpMessage)
}

func (t *TelegramBotHandler) handleStop(ctx context.Context, c telebot.Context) error {
	if c.Sender() == nil {
		return nil
	}
	if _, err := t.service.TelegramBotService.UnregisterUser(ctx, c.Sender().ID); err != nil {
		t.log.ErrorContext(ctx, "Failed to unregister user", logger.ErrorField(err), logger.Int64Field("telegram_id", c.Sender().ID))
		return t.sender.Reply(ctx, c, "⚠️ Could not unsubscribe you right now, please try again later.")
	}
	return t.sender.Reply(ctx, c, "🔕 You will no longer receive notifications. Send /start to subscribe again.")
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	return t.sender.Reply(ctx, c, helpMessage)
}

func (t *TelegramBotHandler) handleText(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return t.sender.Reply(ctx, c, "Unknown command. Use /help to see what is available.")
	}
	return nil
}

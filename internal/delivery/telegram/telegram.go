package telegram

import (
	"context"
	"time"

	"trading-panel/config"
	"trading-panel/internal/service"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/telegram"
	"trading-panel/pkg/utils"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

type TelegramBotHandler struct {
	ctx     context.Context
	cfg     *config.Config
	bot     *telebot.Bot
	log     *logger.Logger
	sender  *telegram.Sender
	echo    *echo.Echo
	service *service.Service
	polling bool
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	sender *telegram.Sender,
	echo *echo.Echo,
	service *service.Service) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:     ctx,
		cfg:     cfg,
		log:     log,
		bot:     bot,
		sender:  sender,
		echo:    echo,
		service: service,
	}
}

// Start registers the command handlers and begins receiving updates, through
// the webhook route when a public URL is configured and by long polling otherwise.
func (t *TelegramBotHandler) Start() {
	if t.bot == nil {
		t.log.Warn("Telegram bot token is empty, bot commands are disabled")
		return
	}
	t.log.Info("Starting Telegram bot...")
	t.RegisterHandlers()
	t.sender.StartCleanupExpired(t.ctx, 10*time.Minute, time.Hour)

	if t.cfg.Telegram.WebhookURL != "" {
		t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
		err := t.bot.SetWebhook(&telebot.Webhook{
			Endpoint: &telebot.WebhookEndpoint{PublicURL: t.cfg.Telegram.WebhookURL},
		})
		if err != nil {
			t.log.ErrorContextWithAlert(t.ctx, "Failed to set telegram webhook", logger.ErrorField(err))
		}
		t.RegisterWebhook()
		return
	}

	t.polling = true
	utils.GoSafe(t.bot.Start)
}

func (t *TelegramBotHandler) Stop() {
	if t.bot == nil || !t.polling {
		return
	}
	t.log.Info("Stopping Telegram bot...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopDone := make(chan struct{})
	utils.GoSafe(func() {
		t.bot.Stop()
		close(stopDone)
	})

	select {
	case <-stopDone:
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}
}

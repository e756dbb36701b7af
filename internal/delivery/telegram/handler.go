package telegram

import (
	"net/http"

	"trading-panel/internal/dto"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/middleware"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) wrap(handler middleware.TelegramHandler) telebot.HandlerFunc {
	return middleware.WithContext(t.ctx, t.cfg.Telegram.TimeoutDuration, handler)
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.bot.Handle("/start", t.wrap(t.handleStart))
	t.bot.Handle("/stop", t.wrap(t.handleStop))
	t.bot.Handle("/help", t.wrap(t.handleHelp))
	t.bot.Handle("/positions", t.wrap(t.handlePositions))
	t.bot.Handle("/alerts", t.wrap(t.handleAlerts))
	t.bot.Handle("/notify_all", t.wrap(middleware.AdminOnly(t.cfg.Telegram.AdminIDs, t.handleNotifyAll)))
	t.bot.Handle(telebot.OnText, t.wrap(t.handleText))
}

func (t *TelegramBotHandler) RegisterWebhook() {
	t.echo.POST("/api/v1/telegram/webhook", func(c echo.Context) error {
		var update telebot.Update
		if err := c.Bind(&update); err != nil {
			t.log.ErrorContext(t.ctx, "Cannot bind JSON", logger.ErrorField(err))
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
		}
		t.bot.ProcessUpdate(update)
		return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
	})
}

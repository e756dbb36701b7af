package middleware

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"
)

type TelegramHandler func(ctx context.Context, c telebot.Context) error

// WithContext bounds every update handler by timeout under rootCtx.
func WithContext(rootCtx context.Context, timeout time.Duration, handler TelegramHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(rootCtx, timeout)
		defer cancel()

		return handler(ctx, c)
	}
}

// AdminOnly silently ignores updates from senders outside adminIDs.
func AdminOnly(adminIDs []int64, handler TelegramHandler) TelegramHandler {
	allowed := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}
	return func(ctx context.Context, c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		if _, ok := allowed[c.Sender().ID]; !ok {
			return c.Send("⛔ This command is available to administrators only.")
		}
		return handler(ctx, c)
	}
}

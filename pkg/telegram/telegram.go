package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trading-panel/config"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/ratelimit"
	"trading-panel/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

var ErrBotDisabled = errors.New("telegram bot is not configured")

// permanentErrors never succeed on retry; the recipient should stop receiving broadcasts.
var permanentErrors = []*telebot.Error{
	telebot.ErrBlockedByUser,
	telebot.ErrUserIsDeactivated,
	telebot.ErrNotStartedByUser,
	telebot.ErrKickedFromGroup,
	telebot.ErrKickedFromSuperGroup,
	telebot.ErrKickedFromChannel,
	telebot.ErrChatNotFound,
}

// IsPermanent reports whether a send error means the recipient is unreachable for good.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range permanentErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	var tbErr *telebot.Error
	if errors.As(err, &tbErr) && tbErr.Code == http.StatusForbidden {
		return true
	}
	return false
}

// Sender sends rate limited HTML messages through the bot API.
type Sender struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           *telebot.Bot
	globalLimiter *rate.Limiter
	chatLimiters  *ratelimit.LimiterStore
}

func NewSender(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) *Sender {
	global := cfg.MaxGlobalRequestPerSecond
	if global <= 0 {
		global = 25
	}
	perChat := cfg.MaxUserRequestPerSecond
	if perChat <= 0 {
		perChat = 1
	}
	return &Sender{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		globalLimiter: rate.NewLimiter(rate.Limit(global), global),
		chatLimiters:  ratelimit.NewLimiterStore(rate.Limit(perChat), perChat),
	}
}

func (s *Sender) Enabled() bool {
	return s.bot != nil
}

func (s *Sender) htmlOptions() *telebot.SendOptions {
	return &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}
}

// SendHTML delivers text to a single chat.
func (s *Sender) SendHTML(ctx context.Context, chatID int64, text string) error {
	if s.bot == nil {
		return ErrBotDisabled
	}
	if err := s.wait(ctx, chatID); err != nil {
		return err
	}
	_, err := s.bot.Send(&telebot.Chat{ID: chatID}, text, s.htmlOptions())
	return err
}

// Reply answers the chat an update came from.
func (s *Sender) Reply(ctx context.Context, c telebot.Context, text string) error {
	if err := s.wait(ctx, c.Chat().ID); err != nil {
		return err
	}
	return c.Send(text, s.htmlOptions())
}

// NotifyAdmin sends to the configured admin chat; it is a no-op when none is set.
func (s *Sender) NotifyAdmin(ctx context.Context, text string) error {
	if s.cfg.ChatID == 0 {
		return nil
	}
	return s.SendHTML(ctx, s.cfg.ChatID, text)
}

func (s *Sender) wait(ctx context.Context, chatID int64) error {
	if err := s.chatLimiters.GetLimiter(strconv.FormatInt(chatID, 10)).Wait(ctx); err != nil {
		return err
	}
	return s.globalLimiter.Wait(ctx)
}

// StartCleanupExpired evicts idle per-chat limiters until ctx is done.
func (s *Sender) StartCleanupExpired(ctx context.Context, every, maxIdle time.Duration) {
	utils.GoSafe(func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Stopping telegram limiter cleanup")
				return
			case <-ticker.C:
				if n := s.chatLimiters.Evict(maxIdle); n > 0 {
					s.log.Debug("Evicted idle chat limiters", logger.IntField("count", n))
				}
			}
		}
	})
}

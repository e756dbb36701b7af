package cmd

import (
	"context"
	"time"

	"trading-panel/config"
	"trading-panel/internal/realtime"
	"trading-panel/internal/service"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/middleware"
	"trading-panel/pkg/postgres"
	"trading-panel/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	hub         *realtime.Hub
	telegram    *telegram.Sender
	telegramBot *telebot.Bot
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	var bot *telebot.Bot
	if cfg.Telegram.BotToken != "" {
		pref := telebot.Settings{
			Token:  cfg.Telegram.BotToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				log.Error("Telegram bot error", zap.Error(err))
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			log.Error("Failed to create telegram bot", zap.Error(err))
			return nil, err
		}
	} else {
		log.Warn("Telegram bot token is empty, notifications are disabled")
	}

	sender := telegram.NewSender(&cfg.Telegram, log, bot)
	if sender.Enabled() {
		log = log.WithAlertNotifier(sender, zapcore.ErrorLevel)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.NewRateLimiterMiddleware(20, 40, 3*time.Minute))

	return &AppDependency{
		cfg:         cfg,
		log:         log,
		validator:   service.NewValidator(),
		db:          db,
		echo:        e,
		cache:       cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		hub:         realtime.NewHub(log),
		telegram:    sender,
		telegramBot: bot,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	d.hub.Close()
	_ = d.log.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

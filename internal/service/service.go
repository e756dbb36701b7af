package service

import (
	"context"

	"trading-panel/config"
	"trading-panel/internal/contract"
	"trading-panel/internal/repository"
	"trading-panel/internal/strategy"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
)

type Service struct {
	PriceService        PriceService
	NotificationService NotificationService
	PositionService     PositionService
	AlertRegistry       AlertRegistry
	ScreenerService     ScreenerService
	TelegramBotService  TelegramBotService
	SchedulerService    SchedulerService
}

// NewService wires the engine. Without price access the position and alert
// loops are not scheduled; the rest of the application keeps working.
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	validator *goValidator.Validate,
	sender MessageSender,
	publisher contract.ProjectionPublisher,
) *Service {
	var source contract.PriceSource
	if cfg.PriceAccessConfigured() {
		source = repo.BybitRepo
	}
	priceService := NewPriceService(log, source, inmemoryCache, cfg.Engine.PriceWorkers, cfg.Engine.LastPriceTTL)

	notificationService := NewNotificationService(log, sender, repo.UserRepo, cfg.Telegram.AdminIDs, cfg.Telegram.SendInterval)
	positionService := NewPositionService(log, validator, repo.PositionRepo, repo.UnitOfWork, priceService, notificationService, RetryPolicy{
		Attempts: cfg.Engine.ClosureRetryAttempts,
		Backoff:  cfg.Engine.ClosureRetryBackoff,
	})
	alertRegistry := NewAlertRegistry(log, validator, priceService, cfg.Engine.MaxAlerts)
	screenerService := NewScreenerService(log, repo.StakanRepo, inmemoryCache, cfg.Screener.CacheDuration, cfg.Screener.MinChangePercent, cfg.Screener.Limit)
	screenerService.Subscribe(publisher.PublishScreener)

	var jobs []ScheduledJob
	if cfg.Screener.BaseURL != "" {
		jobs = append(jobs, ScheduledJob{
			Strategy: strategy.NewVolatilityScreenerStrategy(log, screenerService),
			Interval: cfg.Screener.Interval,
		})
	}
	if priceService.Enabled() {
		jobs = append(jobs,
			ScheduledJob{
				Strategy: strategy.NewPositionTriggerStrategy(log, positionService, priceService, publisher),
				Interval: cfg.Engine.PositionInterval,
			},
			ScheduledJob{
				Strategy: strategy.NewPriceAlertStrategy(log, alertRegistry, priceService, notificationService, publisher),
				Interval: cfg.Engine.AlertInterval,
			},
		)
	} else {
		log.ErrorContextWithAlert(context.Background(), "Price access is not configured, position and alert loops are disabled",
			logger.BoolField("degraded", true))
	}

	return &Service{
		PriceService:        priceService,
		NotificationService: notificationService,
		PositionService:     positionService,
		AlertRegistry:       alertRegistry,
		ScreenerService:     screenerService,
		TelegramBotService:  NewTelegramBotService(log, repo.UserRepo, positionService, priceService, notificationService),
		SchedulerService:    NewSchedulerService(log, cfg.Engine.ShutdownGrace, jobs...),
	}
}

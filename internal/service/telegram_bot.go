package service

import (
	"context"
	"strings"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/internal/helper"
	"trading-panel/internal/model"
	"trading-panel/internal/repository"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/telegram"
	"trading-panel/pkg/utils"
)

type BotUser struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

type TelegramBotService interface {
	// RegisterUser subscribes the user, reactivating a returning one. It reports
	// whether the user was not subscribed before.
	RegisterUser(ctx context.Context, user BotUser) (bool, error)
	UnregisterUser(ctx context.Context, telegramID int64) (bool, error)
	ActivePositionsMessage(ctx context.Context) (string, error)
	NotifyAll(ctx context.Context, text string) (dto.BroadcastResult, error)
	SubscriberCount(ctx context.Context) (int64, error)
}

type telegramBotService struct {
	log       *logger.Logger
	userRepo  repository.UserRepository
	positions PositionService
	prices    contract.PriceResolver
	notifier  contract.Notifier
}

func NewTelegramBotService(
	log *logger.Logger,
	userRepo repository.UserRepository,
	positions PositionService,
	prices contract.PriceResolver,
	notifier contract.Notifier,
) TelegramBotService {
	return &telegramBotService{
		log:       log,
		userRepo:  userRepo,
		positions: positions,
		prices:    prices,
		notifier:  notifier,
	}
}

func (s *telegramBotService) RegisterUser(ctx context.Context, user BotUser) (bool, error) {
	existing, err := s.userRepo.GetUserByTelegramID(ctx, user.TelegramID)
	if err != nil {
		return false, err
	}

	err = s.userRepo.Upsert(ctx, &model.User{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		StartedAt:  utils.TimeNowUTC(),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to register subscriber", logger.Int64Field("telegram_id", user.TelegramID), logger.ErrorField(err))
		return false, err
	}

	isNew := existing == nil || !existing.IsActive
	if isNew {
		s.log.InfoContext(ctx, "Subscriber registered", logger.Int64Field("telegram_id", user.TelegramID), logger.StringField("username", user.Username))
	}
	return isNew, nil
}

func (s *telegramBotService) UnregisterUser(ctx context.Context, telegramID int64) (bool, error) {
	ok, err := s.userRepo.Deactivate(ctx, telegramID)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.InfoContext(ctx, "Subscriber unsubscribed", logger.Int64Field("telegram_id", telegramID))
	}
	return ok, nil
}

func (s *telegramBotService) ActivePositionsMessage(ctx context.Context) (string, error) {
	positions, err := s.positions.ListActive(ctx)
	if err != nil {
		return "", err
	}

	now := utils.TimeNowUTC()
	quotes := s.prices.ResolveMany(ctx, helper.UniqueNames(positions))
	lines := make([]telegram.PositionLine, 0, len(positions))
	for _, p := range positions {
		proj := helper.NewProjection(p, quotes[p.Name], now)
		lines = append(lines, telegram.PositionLine{
			ID:             p.ID,
			Name:           p.Name,
			PosType:        string(p.PosType),
			EntryPrice:     p.EntryPrice,
			LastPrice:      proj.LastPrice,
			BalancePercent: proj.BalancePercent,
			PriceKnown:     proj.Status == dto.PositionStatusActive,
		})
	}
	return telegram.FormatPositionList(lines, now), nil
}

func (s *telegramBotService) NotifyAll(ctx context.Context, text string) (dto.BroadcastResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dto.BroadcastResult{}, dto.NewValidationError().Add("text", "is required")
	}
	return s.notifier.Broadcast(ctx, text), nil
}

func (s *telegramBotService) SubscriberCount(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx, true)
}

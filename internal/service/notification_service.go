package service

import (
	"context"
	"errors"
	"time"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/internal/model"
	"trading-panel/internal/repository"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/telegram"
	"trading-panel/pkg/utils"
)

// MessageSender delivers one rich text message to one chat.
type MessageSender interface {
	SendHTML(ctx context.Context, chatID int64, text string) error
}

type NotificationService interface {
	contract.Notifier
}

type notificationService struct {
	log          *logger.Logger
	sender       MessageSender
	userRepo     repository.UserRepository
	adminIDs     []int64
	sendInterval time.Duration
}

func NewNotificationService(log *logger.Logger, sender MessageSender, userRepo repository.UserRepository, adminIDs []int64, sendInterval time.Duration) NotificationService {
	return &notificationService{
		log:          log,
		sender:       sender,
		userRepo:     userRepo,
		adminIDs:     adminIDs,
		sendInterval: sendInterval,
	}
}

// Broadcast sends message to every active subscriber plus the admins. Recipients
// are read fresh on each call. A permanent delivery failure deactivates the
// subscriber; nothing here returns an error to the caller.
func (s *notificationService) Broadcast(ctx context.Context, message string) dto.BroadcastResult {
	var result dto.BroadcastResult

	subscribers, err := s.userRepo.ListActiveTelegramIDs(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load subscribers, sending to admins only", logger.ErrorField(err))
	}
	recipients := utils.UniqueInt64(subscribers, s.adminIDs)
	result.Total = len(recipients)
	if result.Total == 0 {
		s.log.WarnContext(ctx, "No recipients for broadcast")
		return result
	}

	var delivered []int64
	for i, chatID := range recipients {
		if i > 0 && s.sendInterval > 0 {
			if !sleepCtx(ctx, s.sendInterval) {
				result.Failed += len(recipients) - i
				break
			}
		}

		if err := s.sender.SendHTML(ctx, chatID, message); err != nil {
			result.Failed++
			dErr := &dto.DispatchError{RecipientID: chatID, Permanent: telegram.IsPermanent(err), Err: err}
			s.log.WarnContext(ctx, "Failed to deliver message", logger.ErrorField(dErr))
			if dErr.Permanent && !utils.ContainsInt64(s.adminIDs, chatID) {
				s.deactivate(ctx, chatID, &result)
			}
			continue
		}
		result.Sent++
		delivered = append(delivered, chatID)
	}

	if err := s.userRepo.TouchLastNotified(ctx, delivered, utils.TimeNowUTC()); err != nil {
		s.log.WarnContext(ctx, "Failed to record last notification time", logger.ErrorField(err))
	}

	s.log.InfoContext(ctx, "Broadcast finished",
		logger.IntField("total", result.Total),
		logger.IntField("sent", result.Sent),
		logger.IntField("failed", result.Failed))
	return result
}

func (s *notificationService) deactivate(ctx context.Context, chatID int64, result *dto.BroadcastResult) {
	ok, err := s.userRepo.Deactivate(ctx, chatID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to deactivate subscriber", logger.Int64Field("telegram_id", chatID), logger.ErrorField(err))
		return
	}
	if ok {
		result.Deactivated = append(result.Deactivated, chatID)
		s.log.InfoContext(ctx, "Subscriber deactivated", logger.Int64Field("telegram_id", chatID))
	}
}

func (s *notificationService) NotifyPositionOpened(ctx context.Context, position model.Position) dto.BroadcastResult {
	return s.Broadcast(ctx, telegram.FormatOpenPosition(telegram.OpenPositionMessage{
		Name:       position.Name,
		PosType:    string(position.PosType),
		Cross:      position.Cross,
		Percent:    position.Percent,
		EntryPrice: position.EntryPrice,
		TakeProfit: position.TakeProfit,
		StopLoss:   position.StopLoss,
		CreatedAt:  position.CreatedAt,
	}))
}

func (s *notificationService) NotifyPositionClosed(ctx context.Context, position model.Position, closure dto.PositionClosure) dto.BroadcastResult {
	return s.Broadcast(ctx, telegram.FormatClosePosition(telegram.ClosePositionMessage{
		ID:         position.ID,
		Name:       position.Name,
		PosType:    string(position.PosType),
		Reason:     telegram.CloseKind(closure.Reason),
		EntryPrice: position.EntryPrice,
		ExitPrice:  closure.ClosePrice,
		FinalPnl:   closure.FinalPnl,
		ClosedAt:   closure.ClosedAt,
	}))
}

func (s *notificationService) NotifyAlertTriggered(ctx context.Context, alert dto.Alert, price float64) dto.BroadcastResult {
	return s.Broadcast(ctx, telegram.FormatPriceAlert(telegram.PriceAlertMessage{
		Name:         alert.Name,
		TargetPrice:  alert.TargetPrice,
		CurrentPrice: price,
		Condition:    string(alert.Condition),
		TriggeredAt:  utils.TimeNowUTC(),
	}))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// isCanceled is true for errors caused by shutdown rather than by the operation itself.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

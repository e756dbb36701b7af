package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/internal/helper"
	"trading-panel/internal/model"
	"trading-panel/internal/repository"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type PositionService interface {
	contract.PositionStore
	Create(ctx context.Context, req dto.CreatePositionRequest) (*model.Position, error)
	Update(ctx context.Context, id uint, req dto.UpdatePositionRequest) (bool, error)
	Close(ctx context.Context, id uint, req dto.ClosePositionRequest) (*model.Position, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Get(ctx context.Context, id uint) (*model.Position, error)
	List(ctx context.Context, activeOnly bool) ([]model.Position, error)
	GetAudit(ctx context.Context, id uint) ([]model.PositionHistory, []model.PositionLog, error)
}

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

type positionService struct {
	log          *logger.Logger
	validator    *goValidator.Validate
	positionRepo repository.PositionRepository
	uow          repository.UnitOfWork
	prices       contract.PriceResolver
	notifier     contract.Notifier
	retry        RetryPolicy
}

func NewPositionService(
	log *logger.Logger,
	validator *goValidator.Validate,
	positionRepo repository.PositionRepository,
	uow repository.UnitOfWork,
	prices contract.PriceResolver,
	notifier contract.Notifier,
	retry RetryPolicy,
) PositionService {
	if retry.Attempts <= 0 {
		retry.Attempts = 1
	}
	return &positionService{
		log:          log,
		validator:    validator,
		positionRepo: positionRepo,
		uow:          uow,
		prices:       prices,
		notifier:     notifier,
		retry:        retry,
	}
}

func auditDetails(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

// Create validates the request, fills a missing entry price from the market,
// stores the position with its audit rows and announces it. Nothing is written
// when validation fails.
func (s *positionService) Create(ctx context.Context, req dto.CreatePositionRequest) (*model.Position, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	name := strings.ToUpper(strings.TrimSpace(req.Name))

	position := model.Position{
		Name:       name,
		PosType:    model.PositionType(req.PosType),
		Percent:    *req.Percent,
		Cross:      req.Cross,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		IsActive:   true,
	}

	if req.EntryPrice != nil {
		position.EntryPrice = *req.EntryPrice
	} else {
		// check the cheap constraints before going to the network
		if err := repository.ValidatePosition(withPlaceholderEntry(position)); err != nil {
			return nil, err
		}
		if !s.priceEnabled() {
			return nil, dto.ErrPriceSourceDisabled
		}
		quote := s.prices.Resolve(ctx, name)
		if !quote.Found {
			return nil, fmt.Errorf("%w: %s", dto.ErrPriceUnavailable, name)
		}
		position.EntryPrice = quote.LastPrice
	}

	if err := repository.ValidatePosition(position); err != nil {
		return nil, err
	}

	err := s.uow.Run(ctx, func(opts ...utils.DBOption) error {
		if err := s.positionRepo.Create(ctx, &position, opts...); err != nil {
			return err
		}
		if err := s.positionRepo.CreateHistory(ctx, model.NewPositionHistory(position), opts...); err != nil {
			return err
		}
		return s.positionRepo.CreateLog(ctx, &model.PositionLog{
			PositionID: position.ID,
			Action:     model.PositionActionCreate,
			Details:    auditDetails(position),
		}, opts...)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to create position", logger.StringField("name", name), logger.ErrorField(err))
		return nil, err
	}

	s.log.InfoContext(ctx, "Position created",
		logger.UintField("position_id", position.ID),
		logger.StringField("name", position.Name),
		logger.StringField("pos_type", string(position.PosType)),
		logger.Float64Field("entry_price", position.EntryPrice))

	// the announcement outlives the request that created the position
	s.notifier.NotifyPositionOpened(context.WithoutCancel(ctx), position)
	return &position, nil
}

func (s *positionService) priceEnabled() bool {
	if e, ok := s.prices.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}

func withPlaceholderEntry(p model.Position) model.Position {
	p.EntryPrice = 1
	return p
}

func (s *positionService) Update(ctx context.Context, id uint, req dto.UpdatePositionRequest) (bool, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return false, err
	}
	if req.IsEmpty() {
		return false, dto.NewValidationError().Add("body", "no fields to update")
	}

	var updated bool
	err := s.uow.Run(ctx, func(opts ...utils.DBOption) error {
		position, err := s.positionRepo.GetByID(ctx, id, opts...)
		if err != nil {
			return err
		}
		if !position.IsActive {
			return dto.ErrPositionClosed
		}

		if req.Percent != nil {
			position.Percent = *req.Percent
		}
		if req.Cross != nil {
			position.Cross = req.Cross
		}
		if req.TakeProfit != nil {
			position.TakeProfit = *req.TakeProfit
		}
		if req.StopLoss != nil {
			position.StopLoss = *req.StopLoss
		}

		updated, err = s.positionRepo.Update(ctx, *position, opts...)
		if err != nil || !updated {
			return err
		}
		if err := s.positionRepo.CreateHistory(ctx, model.NewPositionHistory(*position), opts...); err != nil {
			return err
		}
		return s.positionRepo.CreateLog(ctx, &model.PositionLog{
			PositionID: id,
			Action:     model.PositionActionUpdate,
			Details:    auditDetails(req),
		}, opts...)
	})
	if errors.Is(err, dto.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return updated, nil
}

// ClosePosition writes the terminal state exactly once. The write is retried on
// store failures; the announcement happens only for the caller that actually
// closed the row and is never retried.
func (s *positionService) ClosePosition(ctx context.Context, position model.Position, closure dto.PositionClosure) (bool, error) {
	var (
		closed  bool
		lastErr error
	)
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		lastErr = s.uow.Run(ctx, func(opts ...utils.DBOption) error {
			ok, err := s.positionRepo.Close(ctx, position.ID, closure, opts...)
			if err != nil {
				return err
			}
			closed = ok
			if !ok {
				return nil
			}
			return s.positionRepo.CreateLog(ctx, &model.PositionLog{
				PositionID: position.ID,
				Action:     model.PositionActionClose,
				Details:    auditDetails(closure),
			}, opts...)
		})
		if lastErr == nil || isCanceled(lastErr) {
			break
		}
		s.log.WarnContext(ctx, "Closing position failed, retrying",
			logger.UintField("position_id", position.ID),
			logger.IntField("attempt", attempt),
			logger.ErrorField(lastErr))
		if attempt < s.retry.Attempts && !sleepCtx(ctx, s.retry.Backoff*time.Duration(attempt)) {
			break
		}
	}
	if lastErr != nil {
		s.log.ErrorContextWithAlert(ctx, "Failed to close position",
			logger.UintField("position_id", position.ID),
			logger.StringField("name", position.Name),
			logger.StringField("reason", string(closure.Reason)),
			logger.ErrorField(lastErr))
		return false, lastErr
	}
	if !closed {
		s.log.InfoContext(ctx, "Position already closed", logger.UintField("position_id", position.ID))
		return false, nil
	}

	position.IsActive = false
	position.CloseReason = &closure.Reason
	position.ClosePrice = &closure.ClosePrice
	position.FinalPnl = &closure.FinalPnl
	position.ClosedAt = &closure.ClosedAt

	s.log.InfoContext(ctx, "Position closed",
		logger.UintField("position_id", position.ID),
		logger.StringField("name", position.Name),
		logger.StringField("reason", string(closure.Reason)),
		logger.Float64Field("final_pnl", closure.FinalPnl))

	s.notifier.NotifyPositionClosed(context.WithoutCancel(ctx), position, closure)
	return true, nil
}

// Close is the manual close. Without an explicit price the current market price
// is used; when that is unavailable the position closes flat.
func (s *positionService) Close(ctx context.Context, id uint, req dto.ClosePositionRequest) (*model.Position, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}
	position, err := s.positionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsActive {
		return nil, dto.ErrPositionClosed
	}

	var price float64
	if req.Price != nil {
		price = *req.Price
	} else if quote := s.prices.Resolve(ctx, position.Name); quote.Found {
		price = quote.LastPrice
	}

	closure := helper.NewClosure(*position, model.CloseReasonManual, price, utils.TimeNowUTC())
	closed, err := s.ClosePosition(ctx, *position, closure)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, dto.ErrPositionClosed
	}
	return s.positionRepo.GetByID(ctx, id)
}

func (s *positionService) Delete(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.positionRepo.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete position", logger.UintField("position_id", id), logger.ErrorField(err))
		return false, err
	}
	if deleted {
		s.log.InfoContext(ctx, "Position deleted", logger.UintField("position_id", id))
	}
	return deleted, nil
}

func (s *positionService) Get(ctx context.Context, id uint) (*model.Position, error) {
	return s.positionRepo.GetByID(ctx, id)
}

func (s *positionService) List(ctx context.Context, activeOnly bool) ([]model.Position, error) {
	return s.positionRepo.Get(ctx, dto.GetPositionsParam{ActiveOnly: activeOnly})
}

func (s *positionService) ListActive(ctx context.Context) ([]model.Position, error) {
	return s.List(ctx, true)
}

func (s *positionService) GetAudit(ctx context.Context, id uint) ([]model.PositionHistory, []model.PositionLog, error) {
	if _, err := s.positionRepo.GetByID(ctx, id); err != nil {
		return nil, nil, err
	}
	history, err := s.positionRepo.GetHistory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.positionRepo.GetLogs(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return history, logs, nil
}

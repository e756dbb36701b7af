package repository

import (
	"context"
	"errors"
	"strings"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
	"trading-panel/pkg/utils"

	"gorm.io/gorm"
)

type PositionRepository interface {
	Create(ctx context.Context, position *model.Position, opts ...utils.DBOption) error
	Get(ctx context.Context, param dto.GetPositionsParam, opts ...utils.DBOption) ([]model.Position, error)
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Position, error)
	Update(ctx context.Context, position model.Position, opts ...utils.DBOption) (bool, error)
	Close(ctx context.Context, id uint, closure dto.PositionClosure, opts ...utils.DBOption) (bool, error)
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) (bool, error)
	CreateHistory(ctx context.Context, history *model.PositionHistory, opts ...utils.DBOption) error
	CreateLog(ctx context.Context, log *model.PositionLog, opts ...utils.DBOption) error
	GetHistory(ctx context.Context, positionID uint, opts ...utils.DBOption) ([]model.PositionHistory, error)
	GetLogs(ctx context.Context, positionID uint, opts ...utils.DBOption) ([]model.PositionLog, error)
}

type positionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{
		db: db,
	}
}

// ValidatePosition enforces the row constraints before anything reaches the database.
func ValidatePosition(p model.Position) error {
	vErr := dto.NewValidationError()
	if strings.TrimSpace(p.Name) == "" {
		vErr.Add("name", "must not be empty")
	}
	if !p.PosType.Valid() {
		vErr.Add("pos_type", "must be long or short")
	}
	if p.Percent < 1 || p.Percent > 100 {
		vErr.Add("percent", "must be between 1 and 100")
	}
	if p.Cross != nil && *p.Cross < 0 {
		vErr.Add("cross", "must not be negative")
	}
	if p.EntryPrice <= 0 {
		vErr.Add("entry_price", "must be greater than 0")
	}
	if p.TakeProfit < 0 {
		vErr.Add("take_profit", "must not be negative")
	}
	if p.StopLoss < 0 {
		vErr.Add("stop_loss", "must not be negative")
	}
	if p.TakeProfit == p.StopLoss {
		vErr.Add("take_profit", "must differ from stop_loss")
	}
	return vErr.OrNil()
}

func (r *positionRepository) Create(ctx context.Context, position *model.Position, opts ...utils.DBOption) error {
	if err := ValidatePosition(*position); err != nil {
		return err
	}
	position.IsActive = true
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return dto.NewStoreError("create position", tx.Create(position).Error)
}

func (r *positionRepository) Get(ctx context.Context, param dto.GetPositionsParam, opts ...utils.DBOption) ([]model.Position, error) {
	var positions []model.Position

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}

	if len(param.Names) > 0 {
		qFilter = append(qFilter, "name IN (?)")
		qFilterParam = append(qFilterParam, param.Names)
	}

	if param.ActiveOnly {
		qFilter = append(qFilter, "is_active = ?")
		qFilterParam = append(qFilterParam, true)
	}

	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if len(qFilter) > 0 {
		tx = tx.Where(strings.Join(qFilter, " AND "), qFilterParam...)
	}
	if param.Limit > 0 {
		tx = tx.Limit(param.Limit)
	}

	if err := tx.Order("created_at DESC").Order("id DESC").Find(&positions).Error; err != nil {
		return nil, dto.NewStoreError("list positions", err)
	}

	return positions, nil
}

func (r *positionRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Position, error) {
	var position model.Position
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	if err := tx.Where("id = ?", id).First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dto.ErrNotFound
		}
		return nil, dto.NewStoreError("get position", err)
	}
	return &position, nil
}

// Update writes the mutable fields of an active position. Closed rows are never touched.
func (r *positionRepository) Update(ctx context.Context, position model.Position, opts ...utils.DBOption) (bool, error) {
	if err := ValidatePosition(position); err != nil {
		return false, err
	}
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.Model(&model.Position{}).
		Where("id = ? AND is_active = ?", position.ID, true).
		Updates(map[string]interface{}{
			"percent":        position.Percent,
			"cross_leverage": position.Cross,
			"take_profit":    position.TakeProfit,
			"stop_loss":      position.StopLoss,
		})
	if result.Error != nil {
		return false, dto.NewStoreError("update position", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Close is a conditional transition: only an active row is closed, so a second
// call for the same position reports false and changes nothing.
func (r *positionRepository) Close(ctx context.Context, id uint, closure dto.PositionClosure, opts ...utils.DBOption) (bool, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.Model(&model.Position{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":    false,
			"close_reason": string(closure.Reason),
			"close_price":  closure.ClosePrice,
			"final_pnl":    closure.FinalPnl,
			"closed_at":    closure.ClosedAt,
		})
	if result.Error != nil {
		return false, dto.NewStoreError("close position", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Delete removes the position together with its history and log rows.
func (r *positionRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) (bool, error) {
	var deleted bool
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("position_id = ?", id).Delete(&model.PositionLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("position_id = ?", id).Delete(&model.PositionHistory{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Position{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, dto.NewStoreError("delete position", err)
	}
	return deleted, nil
}

func (r *positionRepository) CreateHistory(ctx context.Context, history *model.PositionHistory, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return dto.NewStoreError("create position history", tx.Create(history).Error)
}

func (r *positionRepository) CreateLog(ctx context.Context, log *model.PositionLog, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return dto.NewStoreError("create position log", tx.Create(log).Error)
}

func (r *positionRepository) GetHistory(ctx context.Context, positionID uint, opts ...utils.DBOption) ([]model.PositionHistory, error) {
	var history []model.PositionHistory
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := tx.Where("position_id = ?", positionID).Order("id ASC").Find(&history).Error; err != nil {
		return nil, dto.NewStoreError("get position history", err)
	}
	return history, nil
}

func (r *positionRepository) GetLogs(ctx context.Context, positionID uint, opts ...utils.DBOption) ([]model.PositionLog, error) {
	var logs []model.PositionLog
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := tx.Where("position_id = ?", positionID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, dto.NewStoreError("get position logs", err)
	}
	return logs, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
	"trading-panel/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64, opts ...utils.DBOption) (*model.User, error)
	Upsert(ctx context.Context, user *model.User, opts ...utils.DBOption) error
	ListActiveTelegramIDs(ctx context.Context, opts ...utils.DBOption) ([]int64, error)
	Deactivate(ctx context.Context, telegramID int64, opts ...utils.DBOption) (bool, error)
	TouchLastNotified(ctx context.Context, telegramIDs []int64, at time.Time, opts ...utils.DBOption) error
	Count(ctx context.Context, activeOnly bool, opts ...utils.DBOption) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) GetUserByTelegramID(ctx context.Context, telegramID int64, opts ...utils.DBOption) (*model.User, error) {
	var user model.User
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.Where("telegram_id = ?", telegramID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dto.NewStoreError("get user", result.Error)
	}

	return &user, nil
}

// Upsert registers a subscriber or refreshes its profile; a returning user is reactivated.
func (r *userRepository) Upsert(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	if user.StartedAt.IsZero() {
		user.StartedAt = utils.TimeNowUTC()
	}
	user.IsActive = true

	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "is_active", "updated_at"}),
	}).Create(user).Error
	return dto.NewStoreError("upsert user", err)
}

func (r *userRepository) ListActiveTelegramIDs(ctx context.Context, opts ...utils.DBOption) ([]int64, error) {
	var ids []int64
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := tx.Model(&model.User{}).Where("is_active = ?", true).Order("id ASC").Pluck("telegram_id", &ids).Error; err != nil {
		return nil, dto.NewStoreError("list active users", err)
	}
	return ids, nil
}

func (r *userRepository) Deactivate(ctx context.Context, telegramID int64, opts ...utils.DBOption) (bool, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	result := tx.Model(&model.User{}).
		Where("telegram_id = ? AND is_active = ?", telegramID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, dto.NewStoreError("deactivate user", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *userRepository) TouchLastNotified(ctx context.Context, telegramIDs []int64, at time.Time, opts ...utils.DBOption) error {
	if len(telegramIDs) == 0 {
		return nil
	}
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	err := tx.Model(&model.User{}).
		Where("telegram_id IN (?)", telegramIDs).
		Update("last_notified_at", at).Error
	return dto.NewStoreError("touch last notified", err)
}

func (r *userRepository) Count(ctx context.Context, activeOnly bool, opts ...utils.DBOption) (int64, error) {
	var count int64
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.User{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, dto.NewStoreError("count users", err)
	}
	return count, nil
}

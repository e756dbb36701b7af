package repository

import (
	"trading-panel/config"
	"trading-panel/pkg/cache"
	"trading-panel/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	PositionRepo PositionRepository
	UserRepo     UserRepository
	BybitRepo    BybitRepository
	StakanRepo   StakanRepository
	UnitOfWork   UnitOfWork
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		PositionRepo: NewPositionRepository(db),
		UserRepo:     NewUserRepository(db),
		BybitRepo:    NewBybitRepository(cfg, log, inmemoryCache),
		StakanRepo:   NewStakanRepository(cfg, log),
		UnitOfWork:   NewUnitOfWork(db),
	}
}

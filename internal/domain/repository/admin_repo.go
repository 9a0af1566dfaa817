package repository

import (
	"context"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// AdminRepository определяет методы для работы с администраторами
type AdminRepository interface {
	Create(ctx context.Context, admin *entity.Admin) error
	GetByID(ctx context.Context, id uint) (*entity.Admin, error)
	GetByUsername(ctx context.Context, username string) (*entity.Admin, error)
	Count(ctx context.Context) (int64, error)
}

// StatsRepository определяет служебные запросы диагностики
type StatsRepository interface {
	Ping(ctx context.Context) error
	CountRows(ctx context.Context, table string) (int64, error)
}

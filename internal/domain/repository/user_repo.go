package repository

import (
	"context"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с псевдопользователями
type UserRepository interface {
	// Upsert создает пользователя или обновляет ник и last_seen существующего
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) error
	Count(ctx context.Context) (int64, error)
}

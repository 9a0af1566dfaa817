package repository

import (
	"context"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// UserIPRepository определяет методы для работы с IP/сессиями пользователей
type UserIPRepository interface {
	// Upsert создает строку (user_id, ip_address) или обновляет гео, устройство и last_seen
	Upsert(ctx context.Context, ip *entity.UserIP) error
	// LatestByUsers возвращает самую свежую строку для каждого пользователя
	LatestByUsers(ctx context.Context, userIDs []string) ([]entity.UserIP, error)
	CountByCountry(ctx context.Context) ([]GroupCount, error)
	CountByDevice(ctx context.Context) ([]GroupCount, error)
}

package repository

import (
	"context"
	"time"
)

// InvalidTokenRepository определяет методы для работы с инвалидированными токенами администраторов
type InvalidTokenRepository interface {
	// AddInvalidToken добавляет или обновляет время инвалидации токенов администратора
	AddInvalidToken(ctx context.Context, adminID uint, invalidationTime time.Time) error

	// IsTokenInvalid проверяет, инвалидирован ли токен, выпущенный в tokenIssuedAt
	IsTokenInvalid(ctx context.Context, adminID uint, tokenIssuedAt time.Time) (bool, error)

	// CleanupOldInvalidTokens удаляет устаревшие записи
	CleanupOldInvalidTokens(ctx context.Context, cutoffTime time.Time) error
}

package postgres

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// InvalidTokenRepo реализует repository.InvalidTokenRepository
type InvalidTokenRepo struct {
	db *gorm.DB
}

// NewInvalidTokenRepo создает новый репозиторий инвалидированных токенов
func NewInvalidTokenRepo(db *gorm.DB) *InvalidTokenRepo {
	return &InvalidTokenRepo{db: db}
}

// AddInvalidToken добавляет или обновляет время инвалидации токенов администратора
func (r *InvalidTokenRepo) AddInvalidToken(ctx context.Context, adminID uint, invalidationTime time.Time) error {
	// Upsert (INSERT ... ON CONFLICT DO UPDATE): повторный выход сдвигает время инвалидации
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO invalid_tokens (admin_id, invalidation_time)
		VALUES (?, ?)
		ON CONFLICT (admin_id)
		DO UPDATE SET invalidation_time = EXCLUDED.invalidation_time
	`, adminID, invalidationTime).Error

	if err != nil {
		log.Printf("[InvalidTokenRepo] Ошибка при добавлении записи в invalid_tokens: %v", err)
		return err
	}

	log.Printf("[InvalidTokenRepo] Добавлена запись в invalid_tokens для администратора ID=%d", adminID)
	return nil
}

// IsTokenInvalid проверяет, инвалидирован ли токен администратора
func (r *InvalidTokenRepo) IsTokenInvalid(ctx context.Context, adminID uint, tokenIssuedAt time.Time) (bool, error) {
	var invalidToken entity.InvalidToken

	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&invalidToken).Error
	if err != nil {
		if translateError(err) == apperrors.ErrNotFound {
			// Запись не найдена - токен валиден
			return false, nil
		}
		log.Printf("[InvalidTokenRepo] Ошибка при проверке токена: %v", err)
		return false, err
	}

	return invalidToken.IsTokenInvalidAt(tokenIssuedAt), nil
}

// CleanupOldInvalidTokens удаляет записи старше cutoffTime
func (r *InvalidTokenRepo) CleanupOldInvalidTokens(ctx context.Context, cutoffTime time.Time) error {
	result := r.db.WithContext(ctx).Where("invalidation_time < ?", cutoffTime).Delete(&entity.InvalidToken{})
	if result.Error != nil {
		log.Printf("[InvalidTokenRepo] Ошибка при очистке invalid_tokens: %v", result.Error)
		return result.Error
	}

	log.Printf("[InvalidTokenRepo] Удалено %d устаревших записей из invalid_tokens", result.RowsAffected)
	return nil
}

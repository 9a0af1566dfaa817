package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert создает пользователя или обновляет ник и last_seen.
// Пустой ник не затирает сохраненный.
func (r *UserRepo) Upsert(ctx context.Context, user *entity.User) error {
	return upsertUser(r.db.WithContext(ctx), user)
}

func upsertUser(db *gorm.DB, user *entity.User) error {
	if user.LastSeen.IsZero() {
		user.LastSeen = time.Now()
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"nickname":   gorm.Expr("COALESCE(NULLIF(EXCLUDED.nickname, ''), users.nickname)"),
			"last_seen":  gorm.Expr("EXCLUDED.last_seen"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(user).Error
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetByIDs возвращает пользователей по списку ID (порядок не гарантируется)
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	if len(ids) == 0 {
		return []entity.User{}, nil
	}
	var users []entity.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// UpdateNickname меняет ник пользователя
func (r *UserRepo) UpdateNickname(ctx context.Context, id, nickname string) error {
	result := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"nickname":   nickname,
			"last_seen":  time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Count возвращает общее число пользователей
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&total).Error
	return total, err
}

package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
)

// UserIPRepo реализует repository.UserIPRepository
type UserIPRepo struct {
	db *gorm.DB
}

// NewUserIPRepo создает новый репозиторий IP/сессий
func NewUserIPRepo(db *gorm.DB) *UserIPRepo {
	return &UserIPRepo{db: db}
}

// Upsert создает или обновляет строку (user_id, ip_address)
func (r *UserIPRepo) Upsert(ctx context.Context, ip *entity.UserIP) error {
	if ip.LastSeen.IsZero() {
		ip.LastSeen = time.Now()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"country", "city", "device_type", "browser", "os", "last_seen"}),
	}).Create(ip).Error
}

// LatestByUsers возвращает последнюю по last_seen строку каждого пользователя
func (r *UserIPRepo) LatestByUsers(ctx context.Context, userIDs []string) ([]entity.UserIP, error) {
	if len(userIDs) == 0 {
		return []entity.UserIP{}, nil
	}
	var rows []entity.UserIP
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (user_id) *
		FROM user_ips
		WHERE user_id IN ?
		ORDER BY user_id, last_seen DESC
	`, userIDs).Scan(&rows).Error
	return rows, err
}

// CountByCountry возвращает число уникальных пользователей по странам
func (r *UserIPRepo) CountByCountry(ctx context.Context) ([]repository.GroupCount, error) {
	return r.countBy(ctx, "country")
}

// CountByDevice возвращает число уникальных пользователей по типам устройств
func (r *UserIPRepo) CountByDevice(ctx context.Context) ([]repository.GroupCount, error) {
	return r.countBy(ctx, "device_type")
}

func (r *UserIPRepo) countBy(ctx context.Context, column string) ([]repository.GroupCount, error) {
	var rows []repository.GroupCount
	err := r.db.WithContext(ctx).Model(&entity.UserIP{}).
		Select("COALESCE(NULLIF(" + column + ", ''), 'unknown') AS key, COUNT(DISTINCT user_id) AS count").
		Group("key").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

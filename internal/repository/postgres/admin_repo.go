package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// AdminRepo реализует repository.AdminRepository
type AdminRepo struct {
	db *gorm.DB
}

// NewAdminRepo создает новый репозиторий администраторов
func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// Create создает администратора (пароль хешируется в BeforeSave)
func (r *AdminRepo) Create(ctx context.Context, admin *entity.Admin) error {
	return translateError(r.db.WithContext(ctx).Create(admin).Error)
}

// GetByID возвращает администратора по ID
func (r *AdminRepo) GetByID(ctx context.Context, id uint) (*entity.Admin, error) {
	var admin entity.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &admin, nil
}

// GetByUsername возвращает администратора по логину
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	var admin entity.Admin
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, translateError(err)
	}
	return &admin, nil
}

// Count возвращает число администраторов
func (r *AdminRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Admin{}).Count(&total).Error
	return total, err
}

// StatsRepo реализует repository.StatsRepository
type StatsRepo struct {
	db *gorm.DB
}

// NewStatsRepo создает репозиторий служебных запросов
func NewStatsRepo(db *gorm.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// countableTables - таблицы, для которых разрешен подсчет строк
var countableTables = map[string]bool{
	"users":             true,
	"test_records":      true,
	"test_results":      true,
	"user_ips":          true,
	"messages":          true,
	"message_reactions": true,
	"report_images":     true,
}

// Ping проверяет соединение с базой данных
func (r *StatsRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CountRows возвращает число строк таблицы из белого списка
func (r *StatsRepo) CountRows(ctx context.Context, table string) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("table %q is not countable", table)
	}
	var total int64
	err := r.db.WithContext(ctx).Table(table).Count(&total).Error
	return total, err
}

package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// TestRecordRepo реализует repository.TestRecordRepository
type TestRecordRepo struct {
	db *gorm.DB
}

// NewTestRecordRepo создает новый репозиторий записей тестов
func NewTestRecordRepo(db *gorm.DB) *TestRecordRepo {
	return &TestRecordRepo{db: db}
}

// SaveWithResults сохраняет запись и средние баллы по категориям одной транзакцией
func (r *TestRecordRepo) SaveWithResults(ctx context.Context, user *entity.User, record *entity.TestRecord, results []entity.TestResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertUser(tx, user); err != nil {
			return err
		}
		if err := tx.Create(record).Error; err != nil {
			return translateError(err)
		}
		if len(results) == 0 {
			return nil
		}
		for i := range results {
			results[i].RecordID = record.ID
		}
		return tx.Create(&results).Error
	})
}

// GetByID возвращает запись по ID
func (r *TestRecordRepo) GetByID(ctx context.Context, id uint) (*entity.TestRecord, error) {
	var record entity.TestRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

// GetLatest возвращает последнюю запись пользователя по варианту теста
func (r *TestRecordRepo) GetLatest(ctx context.Context, userID string, testType entity.TestType) (*entity.TestRecord, error) {
	var record entity.TestRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND test_type = ?", userID, testType).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

// ListByUser возвращает историю пользователя, новые записи первыми
func (r *TestRecordRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]entity.TestRecord, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	}, limit, offset)
}

// List возвращает страницу записей для админ-панели с учетом фильтров
func (r *TestRecordRepo) List(ctx context.Context, filter repository.RecordFilter, limit, offset int) ([]entity.TestRecord, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return applyRecordFilter(q, filter)
	}, limit, offset)
}

// ListAll возвращает все записи по фильтру (для выгрузок и агрегатов)
func (r *TestRecordRepo) ListAll(ctx context.Context, filter repository.RecordFilter) ([]entity.TestRecord, error) {
	var records []entity.TestRecord
	err := applyRecordFilter(r.db.WithContext(ctx).Model(&entity.TestRecord{}), filter).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

// page читает общее количество и страницу в одной транзакции для согласованности
func (r *TestRecordRepo) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit, offset int) ([]entity.TestRecord, int64, error) {
	var records []entity.TestRecord
	var total int64

	tx := r.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	if err := scope(tx.Model(&entity.TestRecord{})).Count(&total).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	err := scope(tx.Model(&entity.TestRecord{})).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func applyRecordFilter(q *gorm.DB, f repository.RecordFilter) *gorm.DB {
	if f.TestType != "" {
		q = q.Where("test_type = ?", f.TestType)
	}
	if nick := strings.TrimSpace(f.Nickname); nick != "" {
		q = q.Where("nickname ILIKE ?", "%"+escapeLike(nick)+"%")
	}
	if f.Country != "" {
		q = q.Where("user_id IN (SELECT user_id FROM user_ips WHERE country = ?)", strings.ToUpper(f.Country))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

// escapeLike экранирует спецсимволы шаблона LIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Delete удаляет запись вместе с ее результатами и изображениями
func (r *TestRecordRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&entity.TestResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("record_id = ?", id).Delete(&entity.ReportImage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.TestRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// CountByTestType возвращает число записей по каждому варианту теста
func (r *TestRecordRepo) CountByTestType(ctx context.Context) ([]repository.GroupCount, error) {
	var rows []repository.GroupCount
	err := r.db.WithContext(ctx).Model(&entity.TestRecord{}).
		Select("test_type AS key, COUNT(*) AS count").
		Group("test_type").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountSince возвращает число записей, созданных после since
func (r *TestRecordRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.TestRecord{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

// Newest возвращает самую свежую запись среди всех пользователей
func (r *TestRecordRepo) Newest(ctx context.Context) (*entity.TestRecord, error) {
	var record entity.TestRecord
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

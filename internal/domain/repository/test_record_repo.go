package repository

import (
	"context"
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// RecordFilter - фильтры списка записей в админ-панели
type RecordFilter struct {
	TestType entity.TestType
	Nickname string
	Country  string
	From     *time.Time
	To       *time.Time
}

// GroupCount - число строк в группе (тип теста, страна, устройство)
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// TestRecordRepository определяет методы для работы с записями тестов
type TestRecordRepository interface {
	// SaveWithResults в одной транзакции обновляет пользователя, создает запись и строки test_results
	SaveWithResults(ctx context.Context, user *entity.User, record *entity.TestRecord, results []entity.TestResult) error
	GetByID(ctx context.Context, id uint) (*entity.TestRecord, error)
	GetLatest(ctx context.Context, userID string, testType entity.TestType) (*entity.TestRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]entity.TestRecord, int64, error)
	List(ctx context.Context, filter RecordFilter, limit, offset int) ([]entity.TestRecord, int64, error)
	ListAll(ctx context.Context, filter RecordFilter) ([]entity.TestRecord, error)
	// Delete удаляет запись вместе с ее test_results и report_images
	Delete(ctx context.Context, id uint) error
	CountByTestType(ctx context.Context) ([]GroupCount, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Newest(ctx context.Context) (*entity.TestRecord, error)
}

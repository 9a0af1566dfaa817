package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	"github.com/yourusername/selftest-api/pkg/auth"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateNickname(ctx context.Context, id, nickname string) error {
	args := m.Called(ctx, id, nickname)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTestRecordRepository реализует repository.TestRecordRepository
type MockTestRecordRepository struct {
	mock.Mock
}

func (m *MockTestRecordRepository) SaveWithResults(ctx context.Context, user *entity.User, record *entity.TestRecord, results []entity.TestResult) error {
	args := m.Called(ctx, user, record, results)
	return args.Error(0)
}

func (m *MockTestRecordRepository) GetByID(ctx context.Context, id uint) (*entity.TestRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestRecord), args.Error(1)
}

func (m *MockTestRecordRepository) GetLatest(ctx context.Context, userID string, testType entity.TestType) (*entity.TestRecord, error) {
	args := m.Called(ctx, userID, testType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestRecord), args.Error(1)
}

func (m *MockTestRecordRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]entity.TestRecord, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.TestRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRecordRepository) List(ctx context.Context, filter repository.RecordFilter, limit, offset int) ([]entity.TestRecord, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.TestRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRecordRepository) ListAll(ctx context.Context, filter repository.RecordFilter) ([]entity.TestRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TestRecord), args.Error(1)
}

func (m *MockTestRecordRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTestRecordRepository) CountByTestType(ctx context.Context) ([]repository.GroupCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.GroupCount), args.Error(1)
}

func (m *MockTestRecordRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTestRecordRepository) Newest(ctx context.Context) (*entity.TestRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestRecord), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserIPRepository реализует repository.UserIPRepository
type MockUserIPRepository struct {
	mock.Mock
}

func (m *MockUserIPRepository) Upsert(ctx context.Context, ip *entity.UserIP) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

func (m *MockUserIPRepository) LatestByUsers(ctx context.Context, userIDs []string) ([]entity.UserIP, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserIP), args.Error(1)
}

func (m *MockUserIPRepository) CountByCountry(ctx context.Context) ([]repository.GroupCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.GroupCount), args.Error(1)
}

func (m *MockUserIPRepository) CountByDevice(ctx context.Context) ([]repository.GroupCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.GroupCount), args.Error(1)
}

// MockMessageRepository реализует repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*entity.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Message), args.Error(1)
}

func (m *MockMessageRepository) List(ctx context.Context, limit, offset int) ([]entity.Message, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Message), args.Get(1).(int64), args.Error(2)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReactionRepository реализует repository.ReactionRepository
type MockReactionRepository struct {
	mock.Mock
}

func (m *MockReactionRepository) Toggle(ctx context.Context, reaction *entity.MessageReaction) (bool, error) {
	args := m.Called(ctx, reaction)
	return args.Bool(0), args.Error(1)
}

func (m *MockReactionRepository) CountsForMessages(ctx context.Context, messageIDs []uint) ([]entity.ReactionCount, error) {
	args := m.Called(ctx, messageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReactionCount), args.Error(1)
}

// MockReportImageRepository реализует repository.ReportImageRepository
type MockReportImageRepository struct {
	mock.Mock
}

func (m *MockReportImageRepository) Create(ctx context.Context, image *entity.ReportImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockReportImageRepository) LatestForRecord(ctx context.Context, recordID uint) (*entity.ReportImage, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReportImage), args.Error(1)
}

// MockAdminRepository реализует repository.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *entity.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id uint) (*entity.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatsRepository реализует repository.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStatsRepository) CountRows(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Прочие моки
// ============================================================================

// MockTokenService реализует TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(admin *entity.Admin) (string, time.Time, error) {
	args := m.Called(admin)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ParseToken(ctx context.Context, tokenString string) (*auth.AdminClaims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AdminClaims), args.Error(1)
}

func (m *MockTokenService) InvalidateTokensForAdmin(ctx context.Context, adminID uint) error {
	args := m.Called(ctx, adminID)
	return args.Error(0)
}

// MockNotifier реализует Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewRecord(ctx context.Context, record *entity.TestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNotifier) NotifyNewMessage(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// recordingBroadcaster запоминает разосланные события
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []interface{}
}

func (b *recordingBroadcaster) BroadcastJSON(v interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, v)
	return nil
}

func (b *recordingBroadcaster) Events() []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]interface{}(nil), b.events...)
}

// runSync выполняет фоновую задачу сразу
func runSync(fn func()) {
	fn()
}

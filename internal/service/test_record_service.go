package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/selftest-api/internal/catalog"
	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/report"
	"github.com/yourusername/selftest-api/internal/websocket"
)

const defaultLatestRecordTTL = 10 * time.Minute

// AnonymousNickname подставляется, если клиент не передал ник
const AnonymousNickname = "Anonymous"

// TestRecordService предоставляет методы для сохранения и чтения записей тестов
type TestRecordService struct {
	recordRepo  repository.TestRecordRepository
	userRepo    repository.UserRepository
	cacheRepo   repository.CacheRepository
	broadcaster websocket.Broadcaster
	notifier    Notifier
	cacheTTL    time.Duration
	async       func(func())
}

// NewTestRecordService создает новый сервис записей тестов
func NewTestRecordService(
	recordRepo repository.TestRecordRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	broadcaster websocket.Broadcaster,
	notifier Notifier,
	cacheTTL time.Duration,
) *TestRecordService {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultLatestRecordTTL
	}
	return &TestRecordService{
		recordRepo:  recordRepo,
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		broadcaster: broadcaster,
		notifier:    notifier,
		cacheTTL:    cacheTTL,
		async:       runAsync,
	}
}

// RecordSummary - событие ленты админ-панели о записи
type RecordSummary struct {
	ID        uint            `json:"id"`
	UserID    string          `json:"user_id"`
	Nickname  string          `json:"nickname"`
	TestType  entity.TestType `json:"test_type"`
	Rated     int             `json:"rated"`
	CreatedAt time.Time       `json:"created_at"`
}

func latestRecordKey(userID string, testType entity.TestType) string {
	return fmt.Sprintf("record:latest:%s:%s", userID, testType)
}

// Save проверяет карту оценок, строит отчет и сохраняет запись вместе со средними по категориям
func (s *TestRecordService) Save(ctx context.Context, identity entity.UserIdentity, testType entity.TestType, ratings entity.Ratings) (*entity.TestRecord, *report.Report, error) {
	if identity.IsZero() {
		return nil, nil, fmt.Errorf("%w: identity is required", apperrors.ErrUnauthorized)
	}
	if len(ratings) == 0 {
		return nil, nil, fmt.Errorf("%w: ratings must not be empty", apperrors.ErrValidation)
	}
	if err := ratings.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	c, err := catalog.Get(testType)
	if err != nil {
		return nil, nil, err
	}
	if err := c.ValidateRatings(ratings); err != nil {
		return nil, nil, err
	}

	rep := report.Build(c, ratings)
	reportData, err := entity.ToJSONMap(rep)
	if err != nil {
		return nil, nil, fmt.Errorf("save test record: encode report: %w", err)
	}

	nickname := resolveNickname(ctx, s.userRepo, identity)
	now := time.Now()
	user := &entity.User{ID: identity.UserID, Nickname: identity.Nickname, LastSeen: now}
	record := &entity.TestRecord{
		UserID:     identity.UserID,
		Nickname:   nickname,
		TestType:   testType,
		Ratings:    ratings,
		ReportData: reportData,
		CreatedAt:  now,
	}
	results := make([]entity.TestResult, 0, len(rep.Radar))
	for _, point := range rep.Radar {
		results = append(results, entity.TestResult{
			UserID:    identity.UserID,
			TestType:  testType,
			Category:  point.Category,
			Score:     point.Value,
			CreatedAt: now,
		})
	}

	if err := s.recordRepo.SaveWithResults(ctx, user, record, results); err != nil {
		log.Printf("[TestRecordService] Ошибка сохранения записи пользователя %s: %v", identity.UserID, err)
		return nil, nil, fmt.Errorf("save test record: %w", err)
	}
	log.Printf("[TestRecordService] Сохранена запись ID=%d (%s, %d оценок) пользователя %s",
		record.ID, testType, len(ratings), identity.UserID)

	s.dropLatest(ctx, identity.UserID, testType)
	s.broadcast(websocket.EventRecordCreated, summarize(record))
	notifyInBackground(s.async, "TestRecordService", func(ctx context.Context) error {
		return s.notifier.NotifyNewRecord(ctx, record)
	})

	return record, &rep, nil
}

// LoadLatest возвращает последнюю запись пользователя по варианту теста
func (s *TestRecordService) LoadLatest(ctx context.Context, userID string, testType entity.TestType) (*entity.TestRecord, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	key := latestRecordKey(userID, testType)

	var cached entity.TestRecord
	if err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[TestRecordService] Ошибка чтения кеша %s: %v", key, err)
	}

	record, err := s.recordRepo.GetLatest(ctx, userID, testType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load latest record: %w", err)
	}

	if err := s.cacheRepo.SetJSON(ctx, key, record, s.cacheTTL); err != nil {
		log.Printf("[TestRecordService] Ошибка записи кеша %s: %v", key, err)
	}
	return record, nil
}

// History возвращает записи пользователя, новые первыми
func (s *TestRecordService) History(ctx context.Context, userID string, page, pageSize int) (*Page[entity.TestRecord], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	records, total, err := s.recordRepo.ListByUser(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &Page[entity.TestRecord]{Items: records, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get возвращает запись, если она принадлежит пользователю
func (s *TestRecordService) Get(ctx context.Context, userID string, recordID uint) (*entity.TestRecord, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}
	return record, nil
}

// Delete удаляет запись владельца вместе с результатами и изображениями
func (s *TestRecordService) Delete(ctx context.Context, userID string, recordID uint) error {
	record, err := s.Get(ctx, userID, recordID)
	if err != nil {
		return err
	}
	if err := s.recordRepo.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("delete test record: %w", err)
	}
	log.Printf("[TestRecordService] Пользователь %s удалил запись ID=%d", userID, recordID)

	s.dropLatest(ctx, record.UserID, record.TestType)
	s.broadcast(websocket.EventRecordDeleted, summarize(record))
	return nil
}

// Chart пересчитывает данные диаграмм сохраненной записи по текущему каталогу
func (s *TestRecordService) Chart(ctx context.Context, userID string, recordID uint) (*entity.TestRecord, *report.Report, error) {
	record, err := s.Get(ctx, userID, recordID)
	if err != nil {
		return nil, nil, err
	}
	rep, err := BuildReport(record.TestType, record.Ratings)
	if err != nil {
		return nil, nil, err
	}
	return record, rep, nil
}

// ExportDocument готовит документ для выгрузки записи в файл
func (s *TestRecordService) ExportDocument(ctx context.Context, userID string, recordID uint) (*report.Document, error) {
	record, rep, err := s.Chart(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	doc := report.DocumentFromRecord(record, *rep)
	return &doc, nil
}

// Preview строит данные диаграмм для несохраненной карты оценок
func (s *TestRecordService) Preview(testType entity.TestType, ratings entity.Ratings) (*report.Report, error) {
	if err := ratings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return BuildReport(testType, ratings)
}

// BuildReport строит отчет по каталогу варианта теста
func BuildReport(testType entity.TestType, ratings entity.Ratings) (*report.Report, error) {
	c, err := catalog.Get(testType)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateRatings(ratings); err != nil {
		return nil, err
	}
	rep := report.Build(c, ratings)
	return &rep, nil
}

func (s *TestRecordService) dropLatest(ctx context.Context, userID string, testType entity.TestType) {
	key := latestRecordKey(userID, testType)
	if err := s.cacheRepo.Delete(ctx, key); err != nil {
		log.Printf("[TestRecordService] Ошибка удаления кеша %s: %v", key, err)
	}
}

func (s *TestRecordService) broadcast(eventType string, data interface{}) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.BroadcastJSON(websocket.NewEvent(eventType, data)); err != nil {
		log.Printf("[TestRecordService] Ошибка рассылки события %s: %v", eventType, err)
	}
}

func summarize(record *entity.TestRecord) RecordSummary {
	return RecordSummary{
		ID:        record.ID,
		UserID:    record.UserID,
		Nickname:  record.Nickname,
		TestType:  record.TestType,
		Rated:     len(record.Ratings),
		CreatedAt: record.CreatedAt,
	}
}

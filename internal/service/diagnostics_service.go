package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// DiagnosticTables - таблицы, по которым считается число строк
var DiagnosticTables = []string{
	"users", "test_records", "test_results", "user_ips",
	"messages", "message_reactions", "report_images",
}

// CheckResult - результат одной проверки
type CheckResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// TableCount - число строк таблицы
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
	Error string `json:"error,omitempty"`
}

// DiagnosticsReport - результат диагностики
type DiagnosticsReport struct {
	OK           bool          `json:"ok"`
	Checks       []CheckResult `json:"checks"`
	Tables       []TableCount  `json:"tables"`
	NewestRecord *time.Time    `json:"newest_record,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMs   int64         `json:"duration_ms"`
}

// DiagnosticsService проверяет доступность базы данных и кеша
type DiagnosticsService struct {
	statsRepo  repository.StatsRepository
	cacheRepo  repository.CacheRepository
	recordRepo repository.TestRecordRepository
}

// NewDiagnosticsService создает новый сервис диагностики
func NewDiagnosticsService(statsRepo repository.StatsRepository, cacheRepo repository.CacheRepository, recordRepo repository.TestRecordRepository) *DiagnosticsService {
	return &DiagnosticsService{statsRepo: statsRepo, cacheRepo: cacheRepo, recordRepo: recordRepo}
}

// Run выполняет все проверки. Ошибка отдельной проверки не прерывает остальные.
func (s *DiagnosticsService) Run(ctx context.Context) *DiagnosticsReport {
	started := time.Now()
	rep := &DiagnosticsReport{OK: true, StartedAt: started}

	rep.Checks = append(rep.Checks,
		runCheck(ctx, "database", s.statsRepo.Ping),
		runCheck(ctx, "redis", s.cacheRepo.Ping),
	)

	for _, table := range DiagnosticTables {
		tc := TableCount{Table: table}
		rows, err := s.statsRepo.CountRows(ctx, table)
		if err != nil {
			tc.Error = err.Error()
			rep.OK = false
		}
		tc.Rows = rows
		rep.Tables = append(rep.Tables, tc)
	}

	newest, err := s.recordRepo.Newest(ctx)
	switch {
	case err == nil:
		createdAt := newest.CreatedAt
		rep.NewestRecord = &createdAt
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		log.Printf("[DiagnosticsService] Ошибка получения последней записи: %v", err)
		rep.OK = false
	}

	for _, c := range rep.Checks {
		if !c.OK {
			rep.OK = false
		}
	}
	rep.DurationMs = time.Since(started).Milliseconds()
	log.Printf("[DiagnosticsService] Диагностика завершена за %d мс, ok=%v", rep.DurationMs, rep.OK)
	return rep
}

func runCheck(ctx context.Context, name string, check func(context.Context) error) CheckResult {
	start := time.Now()
	err := check(ctx)
	res := CheckResult{Name: name, OK: err == nil, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Error = err.Error()
		log.Printf("[DiagnosticsService] Проверка %s не прошла: %v", name, err)
	}
	return res
}

package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/websocket"
)

// Submission - строка списка записей админ-панели: запись, пользователь и его последняя сессия
type Submission struct {
	ID         uint                       `json:"id"`
	UserID     string                     `json:"user_id"`
	Nickname   string                     `json:"nickname"`
	TestType   entity.TestType            `json:"test_type"`
	Ratings    entity.Ratings             `json:"ratings"`
	CreatedAt  time.Time                  `json:"created_at"`
	LastSeen   *time.Time                 `json:"last_seen,omitempty"`
	IPAddress  string                     `json:"ip_address,omitempty"`
	Country    string                     `json:"country,omitempty"`
	City       string                     `json:"city,omitempty"`
	DeviceType string                     `json:"device_type,omitempty"`
	Browser    string                     `json:"browser,omitempty"`
	OS         string                     `json:"os,omitempty"`
	Scores     map[string]float64         `json:"scores,omitempty"`
	Levels     map[entity.RatingLevel]int `json:"levels,omitempty"`
}

// DashboardStats - сводные показатели админ-панели
type DashboardStats struct {
	TotalRecords int64                   `json:"total_records"`
	TotalUsers   int64                   `json:"total_users"`
	Last24h      int64                   `json:"last_24h"`
	ByTestType   []repository.GroupCount `json:"by_test_type"`
	ByCountry    []repository.GroupCount `json:"by_country"`
	ByDevice     []repository.GroupCount `json:"by_device"`
}

// CountryRatings - распределение меток по стране
type CountryRatings struct {
	Country string                     `json:"country"`
	Records int                        `json:"records"`
	Levels  map[entity.RatingLevel]int `json:"levels"`
}

// DashboardService предоставляет методы админ-панели
type DashboardService struct {
	recordRepo  repository.TestRecordRepository
	userRepo    repository.UserRepository
	userIPRepo  repository.UserIPRepository
	cacheRepo   repository.CacheRepository
	broadcaster websocket.Broadcaster
	now         func() time.Time
}

// NewDashboardService создает новый сервис админ-панели
func NewDashboardService(
	recordRepo repository.TestRecordRepository,
	userRepo repository.UserRepository,
	userIPRepo repository.UserIPRepository,
	cacheRepo repository.CacheRepository,
	broadcaster websocket.Broadcaster,
) *DashboardService {
	return &DashboardService{
		recordRepo:  recordRepo,
		userRepo:    userRepo,
		userIPRepo:  userIPRepo,
		cacheRepo:   cacheRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// ListSubmissions возвращает страницу записей с данными пользователей и их последних сессий
func (s *DashboardService) ListSubmissions(ctx context.Context, filter repository.RecordFilter, page, pageSize int) (*Page[Submission], error) {
	if filter.TestType != "" && !filter.TestType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, filter.TestType)
	}
	page, pageSize, offset := normalizePage(page, pageSize)

	records, total, err := s.recordRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	items, err := s.joinSubmissions(ctx, records)
	if err != nil {
		return nil, err
	}
	return &Page[Submission]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// joinSubmissions параллельно загружает пользователей и их последние сессии и склеивает с записями
func (s *DashboardService) joinSubmissions(ctx context.Context, records []entity.TestRecord) ([]Submission, error) {
	items := make([]Submission, 0, len(records))
	if len(records) == 0 {
		return items, nil
	}
	userIDs := uniqueUserIDs(records)

	var (
		users []entity.User
		ips   []entity.UserIP
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userRepo.GetByIDs(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		ips, err = s.userIPRepo.LatestByUsers(gctx, userIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[DashboardService] Ошибка загрузки пользователей и сессий: %v", err)
		return nil, fmt.Errorf("join submissions: %w", err)
	}

	usersByID := make(map[string]entity.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	ipsByUser := make(map[string]entity.UserIP, len(ips))
	for _, ip := range ips {
		ipsByUser[ip.UserID] = ip
	}

	for _, r := range records {
		sub := Submission{
			ID:        r.ID,
			UserID:    r.UserID,
			Nickname:  r.Nickname,
			TestType:  r.TestType,
			Ratings:   r.Ratings,
			CreatedAt: r.CreatedAt,
			Levels:    countLevels(r.Ratings),
		}
		if rep, err := BuildReport(r.TestType, r.Ratings); err == nil {
			sub.Scores = rep.CategoryScores()
		}
		if u, ok := usersByID[r.UserID]; ok {
			lastSeen := u.LastSeen
			sub.LastSeen = &lastSeen
		}
		if ip, ok := ipsByUser[r.UserID]; ok {
			sub.IPAddress = ip.IPAddress
			sub.Country = ip.Country
			sub.City = ip.City
			sub.DeviceType = ip.DeviceType
			sub.Browser = ip.Browser
			sub.OS = ip.OS
		}
		items = append(items, sub)
	}
	return items, nil
}

// Stats собирает сводные показатели; независимые запросы выполняются параллельно
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	since := s.now().Add(-24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.ByTestType, err = s.recordRepo.CountByTestType(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByCountry, err = s.userIPRepo.CountByCountry(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByDevice, err = s.userIPRepo.CountByDevice(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Last24h, err = s.recordRepo.CountSince(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalUsers, err = s.userRepo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[DashboardService] Ошибка расчета статистики: %v", err)
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	for _, c := range stats.ByTestType {
		stats.TotalRecords += c.Count
	}
	return stats, nil
}

// RatingsByCountry считает каждую метку по странам для варианта теста.
// Страна пользователя берется из его последней сессии.
func (s *DashboardService) RatingsByCountry(ctx context.Context, testType entity.TestType) ([]CountryRatings, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	records, err := s.recordRepo.ListAll(ctx, repository.RecordFilter{TestType: testType})
	if err != nil {
		return nil, fmt.Errorf("ratings by country: %w", err)
	}
	if len(records) == 0 {
		return []CountryRatings{}, nil
	}
	ips, err := s.userIPRepo.LatestByUsers(ctx, uniqueUserIDs(records))
	if err != nil {
		return nil, fmt.Errorf("ratings by country: %w", err)
	}
	countryByUser := make(map[string]string, len(ips))
	for _, ip := range ips {
		countryByUser[ip.UserID] = ip.Country
	}

	byCountry := make(map[string]*CountryRatings)
	for _, r := range records {
		country := countryByUser[r.UserID]
		if country == "" {
			country = "unknown"
		}
		cr, ok := byCountry[country]
		if !ok {
			cr = &CountryRatings{Country: country, Levels: make(map[entity.RatingLevel]int)}
			byCountry[country] = cr
		}
		cr.Records++
		for _, level := range r.Ratings {
			cr.Levels[level]++
		}
	}

	out := make([]CountryRatings, 0, len(byCountry))
	for _, cr := range byCountry {
		out = append(out, *cr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Records != out[j].Records {
			return out[i].Records > out[j].Records
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}

// DeleteRecord удаляет любую запись от имени администратора
func (s *DashboardService) DeleteRecord(ctx context.Context, adminID, recordID uint) error {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.recordRepo.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	log.Printf("[DashboardService] Администратор ID=%d удалил запись ID=%d пользователя %s", adminID, recordID, record.UserID)

	key := latestRecordKey(record.UserID, record.TestType)
	if err := s.cacheRepo.Delete(ctx, key); err != nil {
		log.Printf("[DashboardService] Ошибка удаления кеша %s: %v", key, err)
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastJSON(websocket.NewEvent(websocket.EventRecordDeleted, summarize(record))); err != nil {
			log.Printf("[DashboardService] Ошибка рассылки события: %v", err)
		}
	}
	return nil
}

func uniqueUserIDs(records []entity.TestRecord) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return ids
}

func countLevels(ratings entity.Ratings) map[entity.RatingLevel]int {
	counts := make(map[entity.RatingLevel]int, len(entity.RatingLevels))
	for _, level := range ratings {
		counts[level]++
	}
	return counts
}

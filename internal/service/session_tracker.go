package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	"github.com/yourusername/selftest-api/internal/pkg/useragent"
)

const defaultSessionThrottle = 5 * time.Minute

// SessionInfo - данные запроса, из которых строится IP/сессионная запись
type SessionInfo struct {
	UserID    string
	IP        string
	UserAgent string
	Country   string
	City      string
}

// SessionTracker записывает IP, гео и устройство пользователя не чаще раза в throttle
type SessionTracker struct {
	userIPRepo repository.UserIPRepository
	cacheRepo  repository.CacheRepository
	throttle   time.Duration
}

// NewSessionTracker создает трекер сессий
func NewSessionTracker(userIPRepo repository.UserIPRepository, cacheRepo repository.CacheRepository, throttle time.Duration) *SessionTracker {
	if throttle <= 0 {
		throttle = defaultSessionThrottle
	}
	return &SessionTracker{userIPRepo: userIPRepo, cacheRepo: cacheRepo, throttle: throttle}
}

// Track сохраняет сессию. Возвращает false, если запись пропущена из-за throttle.
func (t *SessionTracker) Track(ctx context.Context, info SessionInfo) (bool, error) {
	if info.UserID == "" || info.IP == "" {
		return false, nil
	}

	key := fmt.Sprintf("seen:%s:%s", info.UserID, info.IP)
	fresh, err := t.cacheRepo.SetNX(ctx, key, 1, t.throttle)
	if err != nil {
		// Redis недоступен: пишем сессию без throttle
		log.Printf("[SessionTracker] Ошибка throttle %s: %v", key, err)
	} else if !fresh {
		return false, nil
	}

	ua := useragent.Parse(info.UserAgent)
	ip := &entity.UserIP{
		UserID:     info.UserID,
		IPAddress:  info.IP,
		Country:    info.Country,
		City:       info.City,
		DeviceType: ua.Device,
		Browser:    ua.Browser,
		OS:         ua.OS,
		LastSeen:   time.Now(),
	}
	if err := t.userIPRepo.Upsert(ctx, ip); err != nil {
		return false, fmt.Errorf("track session: %w", err)
	}
	return true, nil
}

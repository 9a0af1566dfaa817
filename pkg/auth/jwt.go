package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

const issuer = "selftest-api"

// AdminClaims содержит поля токена администратора
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	// IssuedNano - время выпуска с точностью до наносекунд: iat хранит только секунды,
	// а токен, выданный сразу после выхода, должен оставаться валидным
	IssuedNano int64 `json:"iat_ns"`
	jwt.RegisteredClaims
}

// IssuedTime возвращает точное время выпуска токена
func (c *AdminClaims) IssuedTime() time.Time {
	if c.IssuedNano > 0 {
		return time.Unix(0, c.IssuedNano)
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// JWTService предоставляет методы для работы с JWT администраторов
type JWTService struct {
	secret        []byte
	expirationHrs int
	// Кеш времени инвалидации в памяти; источник истины - invalidTokenRepo
	invalidatedAdmins map[uint]time.Time
	mu                sync.RWMutex
	invalidTokenRepo  repository.InvalidTokenRepository
	now               func() time.Time
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expirationHrs int, invalidTokenRepo repository.InvalidTokenRepository) (*JWTService, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("JWT secret must be at least 16 characters")
	}
	if invalidTokenRepo == nil {
		return nil, fmt.Errorf("InvalidTokenRepository is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secret:            []byte(secret),
		expirationHrs:     expirationHrs,
		invalidatedAdmins: make(map[uint]time.Time),
		invalidTokenRepo:  invalidTokenRepo,
		now:               time.Now,
	}, nil
}

// Expiration возвращает срок жизни токена
func (s *JWTService) Expiration() time.Duration {
	return time.Duration(s.expirationHrs) * time.Hour
}

// GenerateToken создает новый токен для администратора
func (s *JWTService) GenerateToken(admin *entity.Admin) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.Expiration())
	claims := &AdminClaims{
		AdminID:    admin.ID,
		Username:   admin.Username,
		IssuedNano: now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации токена для администратора ID=%d: %v", admin.ID, err)
		return "", time.Time{}, err
	}

	log.Printf("[JWT] Токен сгенерирован для администратора ID=%d", admin.ID)
	return tokenString, expiresAt, nil
}

// ParseToken проверяет подпись, срок действия и инвалидацию токена
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, fmt.Errorf("%w: token is malformed", apperrors.ErrUnauthorized)
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, fmt.Errorf("%w: token is expired", apperrors.ErrExpiredToken)
			case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				log.Printf("[JWT] Неверная подпись токена")
				return nil, fmt.Errorf("%w: signature is invalid", apperrors.ErrUnauthorized)
			}
		}
		log.Printf("[JWT] Ошибка при разборе токена: %v", err)
		return nil, fmt.Errorf("%w: token validation failed", apperrors.ErrUnauthorized)
	}
	if !token.Valid || claims.AdminID == 0 {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	issuedAt := claims.IssuedTime()

	s.mu.RLock()
	invTime, exists := s.invalidatedAdmins[claims.AdminID]
	s.mu.RUnlock()
	if exists && !issuedAt.After(invTime) {
		return nil, fmt.Errorf("%w: token has been invalidated", apperrors.ErrUnauthorized)
	}

	invalid, err := s.invalidTokenRepo.IsTokenInvalid(ctx, claims.AdminID, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("check token invalidation: %w", err)
	}
	if invalid {
		log.Printf("[JWT] Токен администратора ID=%d инвалидирован (выдан %v)", claims.AdminID, issuedAt)
		return nil, fmt.Errorf("%w: token has been invalidated", apperrors.ErrUnauthorized)
	}

	return claims, nil
}

// InvalidateTokensForAdmin делает все ранее выданные токены администратора недействительными
func (s *JWTService) InvalidateTokensForAdmin(ctx context.Context, adminID uint) error {
	now := s.now()

	s.mu.Lock()
	s.invalidatedAdmins[adminID] = now
	s.mu.Unlock()

	if err := s.invalidTokenRepo.AddInvalidToken(ctx, adminID, now); err != nil {
		log.Printf("[JWT] Ошибка при сохранении инвалидации для администратора ID=%d: %v", adminID, err)
		return err
	}

	log.Printf("[JWT] Токены инвалидированы для администратора ID=%d в %v", adminID, now)
	return nil
}

// CleanupInvalidatedAdmins удаляет записи инвалидации старше двух сроков жизни токена
func (s *JWTService) CleanupInvalidatedAdmins(ctx context.Context) error {
	cutoffTime := s.now().Add(-2 * s.Expiration())

	if err := s.invalidTokenRepo.CleanupOldInvalidTokens(ctx, cutoffTime); err != nil {
		log.Printf("[JWTService] Error cleaning up invalid tokens from DB: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for adminID, invalidationTime := range s.invalidatedAdmins {
		if invalidationTime.Before(cutoffTime) {
			delete(s.invalidatedAdmins, adminID)
		}
	}
	return nil
}

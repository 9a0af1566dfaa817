package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/websocket"
	"github.com/yourusername/selftest-api/pkg/auth"
)

// TokenService выпускает, проверяет и отзывает токены администраторов
type TokenService interface {
	GenerateToken(admin *entity.Admin) (string, time.Time, error)
	ParseToken(ctx context.Context, tokenString string) (*auth.AdminClaims, error)
	InvalidateTokensForAdmin(ctx context.Context, adminID uint) error
}

// FeedDisconnector закрывает открытые соединения ленты клиента
type FeedDisconnector interface {
	DisconnectUser(userID string)
}

// AdminSession - результат успешного входа
type AdminSession struct {
	Admin     *entity.Admin
	Token     string
	ExpiresAt time.Time
}

// AdminAuthService предоставляет методы входа и выхода администраторов
type AdminAuthService struct {
	adminRepo repository.AdminRepository
	tokens    TokenService
	feed      FeedDisconnector
}

// NewAdminAuthService создает новый сервис аутентификации администраторов
func NewAdminAuthService(adminRepo repository.AdminRepository, tokens TokenService) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo, tokens: tokens}
}

// SetFeed подключает ленту, соединения которой закрываются при выходе администратора
func (s *AdminAuthService) SetFeed(feed FeedDisconnector) {
	s.feed = feed
}

// Login проверяет учетные данные и выдает токен
func (s *AdminAuthService) Login(ctx context.Context, username, password string) (*AdminSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}

	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AdminAuthService] Неудачный вход: администратор %s не найден", username)
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("admin login: %w", err)
	}
	if !admin.CheckPassword(password) {
		log.Printf("[AdminAuthService] Неудачный вход: неверный пароль для %s", username)
		return nil, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.GenerateToken(admin)
	if err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	log.Printf("[AdminAuthService] Администратор %s (ID=%d) вошел в систему", admin.Username, admin.ID)
	return &AdminSession{Admin: admin, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout отзывает все токены администратора, выпущенные до текущего момента
func (s *AdminAuthService) Logout(ctx context.Context, adminID uint) error {
	if err := s.tokens.InvalidateTokensForAdmin(ctx, adminID); err != nil {
		return fmt.Errorf("admin logout: %w", err)
	}
	if s.feed != nil {
		s.feed.DisconnectUser(websocket.AdminClientID(adminID))
	}
	log.Printf("[AdminAuthService] Администратор ID=%d вышел из системы", adminID)
	return nil
}

// Authenticate проверяет токен и возвращает его claims
func (s *AdminAuthService) Authenticate(ctx context.Context, token string) (*auth.AdminClaims, error) {
	return s.tokens.ParseToken(ctx, token)
}

// Me возвращает текущего администратора
func (s *AdminAuthService) Me(ctx context.Context, adminID uint) (*entity.Admin, error) {
	return s.adminRepo.GetByID(ctx, adminID)
}

// EnsureBootstrapAdmin создает администратора из конфигурации, если таблица пуста
func (s *AdminAuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		log.Println("[AdminAuthService] Учетные данные администратора не заданы, пропускаем создание")
		return nil
	}
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.adminRepo.Create(ctx, &entity.Admin{Username: username, Password: password}); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.Printf("[AdminAuthService] Создан администратор %s", username)
	return nil
}

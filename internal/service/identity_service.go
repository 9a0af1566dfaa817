package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

const (
	maxNicknameRunes = 30
	userIDPrefix     = "u_"
)

var userIDPattern = regexp.MustCompile(`^u_[0-9a-f]{32}$`)

var (
	nicknameAdjectives = []string{"Brave", "Calm", "Clever", "Curious", "Gentle", "Happy", "Lucky", "Quiet", "Shy", "Swift", "Witty", "Wild"}
	nicknameNouns      = []string{"Fox", "Owl", "Cat", "Otter", "Panda", "Raven", "Tiger", "Wolf", "Koala", "Lynx", "Hare", "Bear"}
)

// IdentityService выдает и обновляет анонимные идентичности клиентов
type IdentityService struct {
	userRepo repository.UserRepository
}

// NewIdentityService создает новый сервис идентичностей
func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// Issue создает нового псевдопользователя. Пустой ник заменяется сгенерированным.
func (s *IdentityService) Issue(ctx context.Context, nickname string) (*entity.UserIdentity, error) {
	if strings.TrimSpace(nickname) == "" {
		nickname = GenerateNickname()
	}
	nick, err := NormalizeNickname(nickname)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:       NewUserID(),
		Nickname: nick,
		LastSeen: time.Now(),
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		log.Printf("[IdentityService] Ошибка создания пользователя: %v", err)
		return nil, fmt.Errorf("issue identity: %w", err)
	}

	log.Printf("[IdentityService] Выдана новая идентичность %s", user.ID)
	return &entity.UserIdentity{UserID: user.ID, Nickname: user.Nickname}, nil
}

// Touch отмечает активность пользователя и обновляет ник, если он передан
func (s *IdentityService) Touch(ctx context.Context, identity entity.UserIdentity) error {
	if !IsValidUserID(identity.UserID) {
		return fmt.Errorf("%w: invalid user id", apperrors.ErrValidation)
	}
	nick := ""
	if identity.Nickname != "" {
		var err error
		if nick, err = NormalizeNickname(identity.Nickname); err != nil {
			return err
		}
	}
	user := &entity.User{ID: identity.UserID, Nickname: nick, LastSeen: time.Now()}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("touch identity: %w", err)
	}
	return nil
}

// Rename меняет ник пользователя
func (s *IdentityService) Rename(ctx context.Context, userID, nickname string) (*entity.UserIdentity, error) {
	nick, err := NormalizeNickname(nickname)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateNickname(ctx, userID, nick); err != nil {
		return nil, fmt.Errorf("rename identity: %w", err)
	}
	return &entity.UserIdentity{UserID: userID, Nickname: nick}, nil
}

// Get возвращает сохраненного пользователя
func (s *IdentityService) Get(ctx context.Context, userID string) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// resolveNickname возвращает ник из запроса, иначе сохраненный ник пользователя, иначе Anonymous
func resolveNickname(ctx context.Context, userRepo repository.UserRepository, identity entity.UserIdentity) string {
	if identity.Nickname != "" {
		return identity.Nickname
	}
	user, err := userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[IdentityService] Не удалось получить ник пользователя %s: %v", identity.UserID, err)
		}
		return AnonymousNickname
	}
	if user.Nickname == "" {
		return AnonymousNickname
	}
	return user.Nickname
}

// NewUserID генерирует ID вида u_<32 hex>
func NewUserID() string {
	return userIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsValidUserID проверяет формат ID псевдопользователя
func IsValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// NormalizeNickname обрезает пробелы и проверяет длину (1..30 символов) и отсутствие управляющих символов
func NormalizeNickname(nickname string) (string, error) {
	nick := strings.TrimSpace(nickname)
	n := utf8.RuneCountInString(nick)
	if n == 0 || n > maxNicknameRunes {
		return "", fmt.Errorf("%w: nickname must be 1-%d characters", apperrors.ErrValidation, maxNicknameRunes)
	}
	for _, r := range nick {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: nickname contains control characters", apperrors.ErrValidation)
		}
	}
	return nick, nil
}

// GenerateNickname возвращает ник вида <Прилагательное><Существительное><NNNN>
func GenerateNickname() string {
	adjective := nicknameAdjectives[rand.IntN(len(nicknameAdjectives))]
	noun := nicknameNouns[rand.IntN(len(nicknameNouns))]
	return fmt.Sprintf("%s%s%04d", adjective, noun, rand.IntN(10000))
}

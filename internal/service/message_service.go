package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/websocket"
)

const maxMessageRunes = 500

// MessageView - сообщение вместе с количеством реакций
type MessageView struct {
	entity.Message
	Reactions map[string]int64 `json:"reactions"`
}

// ReactionState - состояние реакции после переключения
type ReactionState struct {
	MessageID uint             `json:"message_id"`
	Emoji     string           `json:"emoji"`
	Active    bool             `json:"active"`
	Reactions map[string]int64 `json:"reactions"`
}

// MessageService предоставляет методы для работы с гостевой книгой
type MessageService struct {
	messageRepo  repository.MessageRepository
	reactionRepo repository.ReactionRepository
	userRepo     repository.UserRepository
	broadcaster  websocket.Broadcaster
	notifier     Notifier
	async        func(func())
}

// NewMessageService создает новый сервис сообщений
func NewMessageService(
	messageRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
	userRepo repository.UserRepository,
	broadcaster websocket.Broadcaster,
	notifier Notifier,
) *MessageService {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	return &MessageService{
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
		userRepo:     userRepo,
		broadcaster:  broadcaster,
		notifier:     notifier,
		async:        runAsync,
	}
}

// Post публикует сообщение
func (s *MessageService) Post(ctx context.Context, identity entity.UserIdentity, content string) (*entity.Message, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity is required", apperrors.ErrUnauthorized)
	}
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxMessageRunes {
		return nil, fmt.Errorf("%w: message must be 1-%d characters", apperrors.ErrValidation, maxMessageRunes)
	}
	nickname := resolveNickname(ctx, s.userRepo, identity)

	message := &entity.Message{
		UserID:    identity.UserID,
		Nickname:  nickname,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		log.Printf("[MessageService] Ошибка создания сообщения: %v", err)
		return nil, fmt.Errorf("post message: %w", err)
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastJSON(websocket.NewEvent(websocket.EventMessageCreated, message)); err != nil {
			log.Printf("[MessageService] Ошибка рассылки события: %v", err)
		}
	}
	notifyInBackground(s.async, "MessageService", func(ctx context.Context) error {
		return s.notifier.NotifyNewMessage(ctx, message)
	})
	return message, nil
}

// List возвращает страницу сообщений (новые первыми) с количеством реакций
func (s *MessageService) List(ctx context.Context, page, pageSize int) (*Page[MessageView], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	messages, total, err := s.messageRepo.List(ctx, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]uint, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	counts := map[uint]map[string]int64{}
	if len(ids) > 0 {
		rows, err := s.reactionRepo.CountsForMessages(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list reactions: %w", err)
		}
		counts = groupReactionCounts(rows)
	}

	items := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		reactions := counts[m.ID]
		if reactions == nil {
			reactions = map[string]int64{}
		}
		items = append(items, MessageView{Message: m, Reactions: reactions})
	}
	return &Page[MessageView]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Delete удаляет сообщение. Автор может удалить свое сообщение, администратор - любое.
func (s *MessageService) Delete(ctx context.Context, userID string, messageID uint, isAdmin bool) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !isAdmin && (userID == "" || message.UserID != userID) {
		return apperrors.ErrForbidden
	}
	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	log.Printf("[MessageService] Удалено сообщение ID=%d (admin=%v)", messageID, isAdmin)
	return nil
}

// ToggleReaction добавляет реакцию, если ее нет, и снимает, если есть
func (s *MessageService) ToggleReaction(ctx context.Context, userID string, messageID uint, emoji string) (*ReactionState, error) {
	if !entity.IsAllowedReaction(emoji) {
		return nil, fmt.Errorf("%w: reaction %q is not allowed", apperrors.ErrValidation, emoji)
	}
	if _, err := s.messageRepo.GetByID(ctx, messageID); err != nil {
		return nil, err
	}

	active, err := s.reactionRepo.Toggle(ctx, &entity.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	rows, err := s.reactionRepo.CountsForMessages(ctx, []uint{messageID})
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	reactions := groupReactionCounts(rows)[messageID]
	if reactions == nil {
		reactions = map[string]int64{}
	}
	return &ReactionState{MessageID: messageID, Emoji: emoji, Active: active, Reactions: reactions}, nil
}

func groupReactionCounts(rows []entity.ReactionCount) map[uint]map[string]int64 {
	out := make(map[uint]map[string]int64)
	for _, row := range rows {
		if out[row.MessageID] == nil {
			out[row.MessageID] = make(map[string]int64)
		}
		out[row.MessageID][row.Emoji] = row.Count
	}
	return out
}

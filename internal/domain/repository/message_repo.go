package repository

import (
	"context"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// MessageRepository определяет методы для работы с гостевой книгой
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id uint) (*entity.Message, error)
	List(ctx context.Context, limit, offset int) ([]entity.Message, int64, error)
	// Delete удаляет сообщение вместе с реакциями
	Delete(ctx context.Context, id uint) error
}

// ReactionRepository определяет методы для работы с реакциями на сообщения
type ReactionRepository interface {
	// Toggle добавляет реакцию, если ее нет, и удаляет, если есть. Возвращает true, если реакция добавлена.
	Toggle(ctx context.Context, reaction *entity.MessageReaction) (bool, error)
	CountsForMessages(ctx context.Context, messageIDs []uint) ([]entity.ReactionCount, error)
}

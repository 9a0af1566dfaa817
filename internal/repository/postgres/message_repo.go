package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// MessageRepo реализует repository.MessageRepository
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo создает новый репозиторий сообщений
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create сохраняет сообщение
func (r *MessageRepo) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetByID возвращает сообщение по ID
func (r *MessageRepo) GetByID(ctx context.Context, id uint) (*entity.Message, error) {
	var message entity.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &message, nil
}

// List возвращает страницу сообщений, новые первыми
func (r *MessageRepo) List(ctx context.Context, limit, offset int) ([]entity.Message, int64, error) {
	var messages []entity.Message
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Message{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// Delete удаляет сообщение и все реакции на него
func (r *MessageRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&entity.MessageReaction{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Message{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// ReactionRepo реализует repository.ReactionRepository
type ReactionRepo struct {
	db *gorm.DB
}

// NewReactionRepo создает новый репозиторий реакций
func NewReactionRepo(db *gorm.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle удаляет реакцию, если она уже есть, иначе добавляет
func (r *ReactionRepo) Toggle(ctx context.Context, reaction *entity.MessageReaction) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("message_id = ? AND user_id = ? AND emoji = ?",
			reaction.MessageID, reaction.UserID, reaction.Emoji).
			Delete(&entity.MessageReaction{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(reaction).Error; err != nil {
			return translateError(err)
		}
		added = true
		return nil
	})
	return added, err
}

// CountsForMessages возвращает количество реакций каждого эмодзи для сообщений
func (r *ReactionRepo) CountsForMessages(ctx context.Context, messageIDs []uint) ([]entity.ReactionCount, error) {
	if len(messageIDs) == 0 {
		return []entity.ReactionCount{}, nil
	}
	var counts []entity.ReactionCount
	err := r.db.WithContext(ctx).Model(&entity.MessageReaction{}).
		Select("message_id, emoji, COUNT(*) AS count").
		Where("message_id IN ?", messageIDs).
		Group("message_id, emoji").
		Order("message_id, emoji").
		Scan(&counts).Error
	return counts, err
}

package entity

import (
	"time"
)

// AllowedReactions - допустимые эмодзи реакций
var AllowedReactions = []string{"👍", "❤️", "😂", "😮", "😢", "🔥"}

// IsAllowedReaction проверяет эмодзи по списку допустимых
func IsAllowedReaction(emoji string) bool {
	for _, e := range AllowedReactions {
		if e == emoji {
			return true
		}
	}
	return false
}

// Message - сообщение в гостевой книге
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Nickname  string    `gorm:"size:50;not null;default:''" json:"nickname"`
	Content   string    `gorm:"size:2000;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Message) TableName() string {
	return "messages"
}

// MessageReaction - реакция пользователя на сообщение
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_reactions_unique" json:"message_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_message_reactions_unique" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:idx_message_reactions_unique" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (MessageReaction) TableName() string {
	return "message_reactions"
}

// ReactionCount - количество реакций одного эмодзи на сообщение
type ReactionCount struct {
	MessageID uint   `json:"message_id"`
	Emoji     string `json:"emoji"`
	Count     int64  `json:"count"`
}

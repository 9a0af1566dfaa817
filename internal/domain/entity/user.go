package entity

import (
	"time"
)

// User - анонимный псевдопользователь, созданный на клиенте
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Nickname  string    `gorm:"size:50;not null;default:''" json:"nickname"`
	LastSeen  time.Time `gorm:"not null" json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// UserIdentity - идентичность клиента, передаваемая явно через вызовы
type UserIdentity struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// IsZero проверяет, что идентичность не задана
func (i UserIdentity) IsZero() bool {
	return i.UserID == ""
}

package entity

import (
	"time"
)

// InvalidToken представляет запись об инвалидированных токенах администратора
type InvalidToken struct {
	AdminID          uint      `gorm:"primaryKey" json:"admin_id"`
	InvalidationTime time.Time `gorm:"not null" json:"invalidation_time"`
}

// TableName задает имя таблицы для GORM
func (InvalidToken) TableName() string {
	return "invalid_tokens"
}

// IsTokenInvalidAt проверяет, был ли токен инвалидирован к моменту его выпуска.
// Токен считается невалидным, если он выпущен не позже InvalidationTime.
func (it *InvalidToken) IsTokenInvalidAt(issuedAt time.Time) bool {
	return !issuedAt.After(it.InvalidationTime)
}

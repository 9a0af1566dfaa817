package entity

import (
	"time"
)

// Типы устройств
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// UserIP - IP/сессионная запись пользователя
type UserIP struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_user_ips_user_ip" json:"user_id"`
	IPAddress  string    `gorm:"size:64;not null;uniqueIndex:idx_user_ips_user_ip" json:"ip_address"`
	Country    string    `gorm:"size:64;not null;default:''" json:"country"`
	City       string    `gorm:"size:100;not null;default:''" json:"city"`
	DeviceType string    `gorm:"size:20;not null;default:'unknown'" json:"device_type"`
	Browser    string    `gorm:"size:50;not null;default:''" json:"browser"`
	OS         string    `gorm:"column:os;size:50;not null;default:''" json:"os"`
	LastSeen   time.Time `gorm:"not null;index" json:"last_seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserIP) TableName() string {
	return "user_ips"
}

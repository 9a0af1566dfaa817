package entity

import (
	"time"
)

// ReportImage - изображение отчета, отрендеренное на клиенте
type ReportImage struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RecordID    uint      `gorm:"not null;index" json:"record_id"`
	UserID      string    `gorm:"size:64;not null;index" json:"user_id"`
	ContentType string    `gorm:"size:50;not null" json:"content_type"`
	Size        int       `gorm:"not null" json:"size"`
	Data        []byte    `gorm:"type:bytea;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ReportImage) TableName() string {
	return "report_images"
}

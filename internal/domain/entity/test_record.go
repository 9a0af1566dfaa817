package entity

import (
	"time"
)

// TestRecord - сохраненный снимок всех оценок пользователя по одному варианту теста
type TestRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:64;not null;index:idx_test_records_user_type" json:"user_id"`
	Nickname   string    `gorm:"size:50;not null;default:''" json:"nickname"`
	TestType   TestType  `gorm:"size:20;not null;index:idx_test_records_user_type" json:"test_type"`
	Ratings    Ratings   `gorm:"type:jsonb;not null" json:"ratings"`
	ReportData JSONMap   `gorm:"type:jsonb;not null" json:"report_data"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (TestRecord) TableName() string {
	return "test_records"
}

// IsOwnedBy проверяет, принадлежит ли запись пользователю
func (r *TestRecord) IsOwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// TestResult - средний балл одной категории сохраненной записи.
// Денормализованная строка для агрегатов админ-панели.
type TestResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecordID  uint      `gorm:"not null;index" json:"record_id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	TestType  TestType  `gorm:"size:20;not null;index" json:"test_type"`
	Category  string    `gorm:"size:100;not null" json:"category"`
	Score     float64   `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (TestResult) TableName() string {
	return "test_results"
}

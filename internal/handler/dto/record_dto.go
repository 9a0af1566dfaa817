package dto

import (
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/report"
)

// SaveRecordRequest - запрос на сохранение записи теста
type SaveRecordRequest struct {
	TestType string            `json:"test_type" binding:"required"`
	Ratings  map[string]string `json:"ratings" binding:"required"`
}

// PreviewRequest - запрос на расчет диаграмм без сохранения
type PreviewRequest struct {
	TestType string            `json:"test_type" binding:"required"`
	Ratings  map[string]string `json:"ratings"`
}

// RecordResponse представляет запись теста в формате для ответа клиенту
type RecordResponse struct {
	ID        uint            `json:"id"`
	UserID    string          `json:"user_id"`
	Nickname  string          `json:"nickname"`
	TestType  entity.TestType `json:"test_type"`
	Ratings   entity.Ratings  `json:"ratings"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecordWithReportResponse - запись вместе с данными диаграмм
type RecordWithReportResponse struct {
	Record RecordResponse `json:"record"`
	Report *report.Report `json:"report"`
}

// PaginatedRecordsResponse представляет пагинированный список записей
type PaginatedRecordsResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// ReportImageResponse - метаданные загруженного изображения отчета
type ReportImageResponse struct {
	ID          string    `json:"id"`
	RecordID    uint      `json:"record_id"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRecordResponse создает DTO для записи
func NewRecordResponse(r *entity.TestRecord) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Nickname:  r.Nickname,
		TestType:  r.TestType,
		Ratings:   r.Ratings,
		CreatedAt: r.CreatedAt,
	}
}

// NewRecordListResponse создает DTO для списка записей
func NewRecordListResponse(records []entity.TestRecord, total int64, page, perPage int) PaginatedRecordsResponse {
	out := PaginatedRecordsResponse{
		Records: make([]RecordResponse, 0, len(records)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for i := range records {
		out.Records = append(out.Records, NewRecordResponse(&records[i]))
	}
	return out
}

// NewReportImageResponse создает DTO для изображения отчета
func NewReportImageResponse(img *entity.ReportImage) ReportImageResponse {
	return ReportImageResponse{
		ID:          img.ID,
		RecordID:    img.RecordID,
		ContentType: img.ContentType,
		Size:        img.Size,
		CreatedAt:   img.CreatedAt,
	}
}

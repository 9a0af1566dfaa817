package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// ReportImageRepo реализует repository.ReportImageRepository
type ReportImageRepo struct {
	db *gorm.DB
}

// NewReportImageRepo создает новый репозиторий изображений отчетов
func NewReportImageRepo(db *gorm.DB) *ReportImageRepo {
	return &ReportImageRepo{db: db}
}

// Create сохраняет изображение
func (r *ReportImageRepo) Create(ctx context.Context, image *entity.ReportImage) error {
	return translateError(r.db.WithContext(ctx).Create(image).Error)
}

// LatestForRecord возвращает последнее загруженное изображение записи
func (r *ReportImageRepo) LatestForRecord(ctx context.Context, recordID uint) (*entity.ReportImage, error) {
	var image entity.ReportImage
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		First(&image).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &image, nil
}

package repository

import (
	"context"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// ReportImageRepository определяет методы для работы с изображениями отчетов
type ReportImageRepository interface {
	Create(ctx context.Context, image *entity.ReportImage) error
	LatestForRecord(ctx context.Context, recordID uint) (*entity.ReportImage, error)
}

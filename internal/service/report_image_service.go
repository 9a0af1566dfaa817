package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// MaxReportImageSize - максимальный размер загружаемого изображения отчета
const MaxReportImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// ReportImageService хранит изображения отчетов, отрендеренные на клиенте
type ReportImageService struct {
	imageRepo  repository.ReportImageRepository
	recordRepo repository.TestRecordRepository
}

// NewReportImageService создает новый сервис изображений отчетов
func NewReportImageService(imageRepo repository.ReportImageRepository, recordRepo repository.TestRecordRepository) *ReportImageService {
	return &ReportImageService{imageRepo: imageRepo, recordRepo: recordRepo}
}

// Upload сохраняет PNG/JPEG изображение записи. Тип определяется по содержимому.
func (s *ReportImageService) Upload(ctx context.Context, userID string, recordID uint, data []byte) (*entity.ReportImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", apperrors.ErrValidation)
	}
	if len(data) > MaxReportImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", apperrors.ErrValidation, MaxReportImageSize)
	}
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported image type %s", apperrors.ErrValidation, contentType)
	}

	if err := s.checkOwner(ctx, userID, recordID); err != nil {
		return nil, err
	}

	image := &entity.ReportImage{
		ID:          uuid.NewString(),
		RecordID:    recordID,
		UserID:      userID,
		ContentType: contentType,
		Size:        len(data),
		Data:        data,
		CreatedAt:   time.Now(),
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		log.Printf("[ReportImageService] Ошибка сохранения изображения записи %d: %v", recordID, err)
		return nil, fmt.Errorf("save report image: %w", err)
	}
	log.Printf("[ReportImageService] Сохранено изображение %s (%d байт) для записи %d", image.ID, image.Size, recordID)
	return image, nil
}

// Latest возвращает самое новое изображение записи
func (s *ReportImageService) Latest(ctx context.Context, userID string, recordID uint) (*entity.ReportImage, error) {
	if err := s.checkOwner(ctx, userID, recordID); err != nil {
		return nil, err
	}
	return s.imageRepo.LatestForRecord(ctx, recordID)
}

func (s *ReportImageService) checkOwner(ctx context.Context, userID string, recordID uint) error {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.IsOwnedBy(userID) {
		return apperrors.ErrForbidden
	}
	return nil
}

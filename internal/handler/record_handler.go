package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/handler/dto"
	"github.com/yourusername/selftest-api/internal/handler/helper"
	"github.com/yourusername/selftest-api/internal/middleware"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/report"
	"github.com/yourusername/selftest-api/internal/service"
)

// RecordIDKey - ключ контекста с ID записи из URL
const RecordIDKey = "recordID"

// RecordHandler обрабатывает запросы, связанные с записями тестов
type RecordHandler struct {
	recordService *service.TestRecordService
	imageService  *service.ReportImageService
}

// NewRecordHandler создает новый обработчик записей
func NewRecordHandler(recordService *service.TestRecordService, imageService *service.ReportImageService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		imageService:  imageService,
	}
}

// Save сохраняет карту оценок пользователя
func (h *RecordHandler) Save(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req dto.SaveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	testType, err := entity.ParseTestType(req.TestType)
	if err != nil {
		h.handleRecordError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	ratings, err := helper.ConvertRatings(req.Ratings)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	record, rep, err := h.recordService.Save(c.Request.Context(), identity, testType, ratings)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RecordWithReportResponse{Record: dto.NewRecordResponse(record), Report: rep})
}

// History возвращает записи пользователя, новые первыми
func (h *RecordHandler) History(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	page, pageSize := middleware.ParsePagination(c)

	result, err := h.recordService.History(c.Request.Context(), identity.UserID, page, pageSize)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRecordListResponse(result.Items, result.Total, result.Page, result.PageSize))
}

// Latest возвращает последнюю запись пользователя по варианту теста
func (h *RecordHandler) Latest(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	testType, err := entity.ParseTestType(c.Query("test_type"))
	if err != nil {
		h.handleRecordError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	record, err := h.recordService.LoadLatest(c.Request.Context(), identity.UserID, testType)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRecordResponse(record))
}

// Get возвращает запись пользователя
func (h *RecordHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	record, err := h.recordService.Get(c.Request.Context(), identity.UserID, recordID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRecordResponse(record))
}

// Delete удаляет запись пользователя
func (h *RecordHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	if err := h.recordService.Delete(c.Request.Context(), identity.UserID, recordID); err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

// Chart возвращает данные диаграмм сохраненной записи
func (h *RecordHandler) Chart(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	record, rep, err := h.recordService.Chart(c.Request.Context(), identity.UserID, recordID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecordWithReportResponse{Record: dto.NewRecordResponse(record), Report: rep})
}

// Preview рассчитывает данные диаграмм для несохраненной карты оценок
func (h *RecordHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	testType, err := entity.ParseTestType(req.TestType)
	if err != nil {
		h.handleRecordError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	ratings, err := helper.ConvertRatings(req.Ratings)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	rep, err := h.recordService.Preview(testType, ratings)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Export выгружает отчет записи в PDF, XLSX, CSV или JSON.
// На мобильных устройствах файл отдается inline, чтобы открыть системный просмотр и «Поделиться».
func (h *RecordHandler) Export(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	doc, err := h.recordService.ExportDocument(c.Request.Context(), identity.UserID, recordID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	disposition := report.DispositionFor(c.Request.UserAgent(), c.Query("disposition"))
	filename := fmt.Sprintf("%s.%s", doc.Filename(), format)
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, filename))

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, doc.Report)
		return
	}

	// Документ собирается в буфер, чтобы при ошибке вернуть JSON, а не обрезанный файл
	var buf bytes.Buffer
	if err := report.Write(&buf, format, *doc); err != nil {
		log.Printf("[RecordHandler] Ошибка экспорта записи %d в %s: %v", recordID, format, err)
		c.Header("Content-Disposition", "")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed, please retry", "error_type": "export_failed"})
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// UploadImage сохраняет изображение отчета, отрендеренное на клиенте
func (h *RecordHandler) UploadImage(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	data, err := readImageBody(c)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	img, err := h.imageService.Upload(c.Request.Context(), identity.UserID, recordID, data)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewReportImageResponse(img))
}

// GetImage отдает последнее изображение отчета
func (h *RecordHandler) GetImage(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	img, err := h.imageService.Latest(c.Request.Context(), identity.UserID, recordID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	ext := "png"
	if img.ContentType == "image/jpeg" {
		ext = "jpg"
	}
	disposition := report.DispositionFor(c.Request.UserAgent(), c.Query("disposition"))
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=\"selftest_%d.%s\"", disposition, recordID, ext))
	c.Header("Content-Length", strconv.Itoa(len(img.Data)))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// multipartOverhead - запас на границы и заголовки multipart сверх размера изображения
const multipartOverhead = 64 << 10

// readImageBody читает изображение из multipart-поля "image" или из тела запроса.
// Тело ограничивается до разбора, чтобы большой запрос не попал в память или на диск.
func readImageBody(c *gin.Context) ([]byte, error) {
	limit := int64(service.MaxReportImageSize) + 1
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, _, err := c.Request.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, fmt.Errorf("%w: image exceeds %d bytes", apperrors.ErrValidation, service.MaxReportImageSize)
			}
			return nil, fmt.Errorf("%w: cannot read image: %v", apperrors.ErrValidation, err)
		}
		defer file.Close()
		r = file
	}
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read image: %v", apperrors.ErrValidation, err)
	}
	return data, nil
}

// handleRecordError обрабатывает ошибки сервисов записей
func (h *RecordHandler) handleRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in RecordHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

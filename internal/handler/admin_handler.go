package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/handler/dto"
	"github.com/yourusername/selftest-api/internal/handler/helper"
	"github.com/yourusername/selftest-api/internal/middleware"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/report"
	"github.com/yourusername/selftest-api/internal/service"
)

// AdminHandler обрабатывает запросы админ-панели
type AdminHandler struct {
	authService        *service.AdminAuthService
	dashboardService   *service.DashboardService
	diagnosticsService *service.DiagnosticsService
	cookieSecure       bool
}

// NewAdminHandler создает новый обработчик админ-панели
func NewAdminHandler(
	authService *service.AdminAuthService,
	dashboardService *service.DashboardService,
	diagnosticsService *service.DiagnosticsService,
	cookieSecure bool,
) *AdminHandler {
	return &AdminHandler{
		authService:        authService,
		dashboardService:   dashboardService,
		diagnosticsService: diagnosticsService,
		cookieSecure:       cookieSecure,
	}
}

// Login проверяет учетные данные и выставляет HttpOnly cookie с токеном
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password", "error_type": "invalid_credentials"})
			return
		}
		h.handleAdminError(c, err)
		return
	}

	h.setTokenCookie(c, session.Token, int(time.Until(session.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, dto.AdminLoginResponse{
		Admin:     dto.NewAdminResponse(session.Admin),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout отзывает все токены администратора и очищает cookie
func (h *AdminHandler) Logout(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)
	if err := h.authService.Logout(c.Request.Context(), adminID); err != nil {
		h.handleAdminError(c, err)
		return
	}
	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me возвращает текущего администратора
func (h *AdminHandler) Me(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)
	admin, err := h.authService.Me(c.Request.Context(), adminID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAdminResponse(admin))
}

// ListSubmissions возвращает страницу записей с данными пользователей
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	filter, err := helper.ParseRecordFilter(c)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	page, pageSize := middleware.ParsePagination(c)

	result, err := h.dashboardService.ListSubmissions(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportSubmissions выгружает записи под фильтром в CSV или XLSX
func (h *AdminHandler) ExportSubmissions(c *gin.Context) {
	filter, err := helper.ParseRecordFilter(c)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatCSV)))
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.dashboardService.ExportSubmissions(c.Request.Context(), &buf, filter, format); err != nil {
		h.handleAdminError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions_%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// DeleteRecord удаляет запись пользователя
func (h *AdminHandler) DeleteRecord(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)
	recordID := c.MustGet(RecordIDKey).(uint)

	if err := h.dashboardService.DeleteRecord(c.Request.Context(), adminID, recordID); err != nil {
		h.handleAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

// Stats возвращает сводные показатели
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RatingsByCountry возвращает распределение меток по странам
func (h *AdminHandler) RatingsByCountry(c *gin.Context) {
	testType, err := entity.ParseTestType(c.DefaultQuery("test_type", string(entity.TestTypeGeneral)))
	if err != nil {
		h.handleAdminError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	out, err := h.dashboardService.RatingsByCountry(c.Request.Context(), testType)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"test_type": testType, "countries": out})
}

// Diagnostics проверяет базу данных и кеш
func (h *AdminHandler) Diagnostics(c *gin.Context) {
	rep := h.diagnosticsService.Run(c.Request.Context())
	status := http.StatusOK
	if !rep.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, rep)
}

func (h *AdminHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AdminTokenCookie, token, maxAge, "/api/admin", "", h.cookieSecure, true)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
	default:
		log.Printf("ERROR: Internal server error in AdminHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

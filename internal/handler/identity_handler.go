package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/handler/dto"
	"github.com/yourusername/selftest-api/internal/middleware"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/service"
)

// IdentityHandler обрабатывает запросы анонимной идентичности
type IdentityHandler struct {
	identityService *service.IdentityService
}

// NewIdentityHandler создает новый обработчик идентичности
func NewIdentityHandler(identityService *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

// Issue выдает новую идентичность. Ник необязателен.
func (h *IdentityHandler) Issue(c *gin.Context) {
	var req dto.IdentityRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
	}

	identity, err := h.identityService.Issue(c.Request.Context(), req.Nickname)
	if err != nil {
		h.handleIdentityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewIdentityResponse(identity))
}

// Get отмечает активность и возвращает сохраненного пользователя
func (h *IdentityHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.identityService.Touch(c.Request.Context(), identity); err != nil {
		h.handleIdentityError(c, err)
		return
	}
	user, err := h.identityService.Get(c.Request.Context(), identity.UserID)
	if err != nil {
		h.handleIdentityError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIdentityResponseFromUser(user))
}

// Rename меняет ник пользователя
func (h *IdentityHandler) Rename(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req dto.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	updated, err := h.identityService.Rename(c.Request.Context(), identity.UserID, req.Nickname)
	if err != nil {
		h.handleIdentityError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIdentityResponse(updated))
}

func (h *IdentityHandler) handleIdentityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in IdentityHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

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

// MessageIDKey - ключ контекста с ID сообщения из URL
const MessageIDKey = "messageID"

// MessageHandler обрабатывает запросы гостевой книги
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler создает новый обработчик сообщений
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List возвращает страницу сообщений с реакциями
func (h *MessageHandler) List(c *gin.Context) {
	page, pageSize := middleware.ParsePagination(c)
	result, err := h.messageService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.handleMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Post публикует сообщение
func (h *MessageHandler) Post(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	message, err := h.messageService.Post(c.Request.Context(), identity, req.Content)
	if err != nil {
		h.handleMessageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// Delete удаляет собственное сообщение пользователя
func (h *MessageHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	messageID := c.MustGet(MessageIDKey).(uint)

	if err := h.messageService.Delete(c.Request.Context(), identity.UserID, messageID, false); err != nil {
		h.handleMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// AdminDelete удаляет любое сообщение от имени администратора
func (h *MessageHandler) AdminDelete(c *gin.Context) {
	messageID := c.MustGet(MessageIDKey).(uint)

	if err := h.messageService.Delete(c.Request.Context(), "", messageID, true); err != nil {
		h.handleMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// ToggleReaction добавляет или снимает реакцию пользователя
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	messageID := c.MustGet(MessageIDKey).(uint)

	var req dto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	state, err := h.messageService.ToggleReaction(c.Request.Context(), identity.UserID, messageID, req.Emoji)
	if err != nil {
		h.handleMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *MessageHandler) handleMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own messages"})
	default:
		log.Printf("ERROR: Internal server error in MessageHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/pkg/auth"
)

// AdminTokenCookie - имя HttpOnly cookie с токеном администратора
const AdminTokenCookie = "admin_token"

// Ключи контекста Gin для администратора
const (
	AdminIDKey       = "admin_id"
	AdminUsernameKey = "admin_username"
)

// TokenParser проверяет токен администратора
type TokenParser interface {
	ParseToken(ctx context.Context, tokenString string) (*auth.AdminClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для маршрутов админ-панели
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware создает новый middleware аутентификации администраторов
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAdmin проверяет токен из cookie или заголовка Authorization: Bearer
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AdminTokenCookie)
		if err != nil || token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
				c.Abort()
				return
			}

			// Проверяем формат заголовка Bearer {token}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
				c.Abort()
				return
			}
			token = parts[1]
		}

		claims, err := m.tokens.ParseToken(c.Request.Context(), token)
		if err != nil {
			errorType := "token_invalid"
			if errors.Is(err, apperrors.ErrExpiredToken) {
				errorType = "token_expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
			c.Abort()
			return
		}

		c.Set(AdminIDKey, claims.AdminID)
		c.Set(AdminUsernameKey, claims.Username)
		c.Next()
	}
}

// GetAdminID возвращает ID администратора, установленный RequireAdmin
func GetAdminID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(AdminIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

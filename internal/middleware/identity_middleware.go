package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/service"
)

// Заголовки, которыми клиент передает свою анонимную идентичность
const (
	UserIDHeader   = "X-User-ID"
	NicknameHeader = "X-Nickname"
)

const identityKey = "identity"

// RequireIdentity читает X-User-ID и X-Nickname и сохраняет идентичность в контексте.
// Ник передается URL-кодированным и может отсутствовать.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Identity required", "error_type": "identity_missing"})
			c.Abort()
			return
		}
		if !service.IsValidUserID(userID) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user id", "error_type": "identity_invalid"})
			c.Abort()
			return
		}

		nickname := c.GetHeader(NicknameHeader)
		if decoded, err := url.PathUnescape(nickname); err == nil {
			nickname = decoded
		}
		if nickname != "" {
			normalized, err := service.NormalizeNickname(nickname)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "nickname_invalid"})
				c.Abort()
				return
			}
			nickname = normalized
		}

		c.Set(identityKey, entity.UserIdentity{UserID: userID, Nickname: nickname})
		c.Next()
	}
}

// GetIdentity возвращает идентичность, установленную RequireIdentity
func GetIdentity(c *gin.Context) (entity.UserIdentity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return entity.UserIdentity{}, false
	}
	identity, ok := v.(entity.UserIdentity)
	return identity, ok
}

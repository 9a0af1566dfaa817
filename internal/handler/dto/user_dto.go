package dto

import (
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// IdentityRequest - запрос на выдачу или переименование идентичности
type IdentityRequest struct {
	Nickname string `json:"nickname" binding:"omitempty,max=120"`
}

// IdentityResponse - идентичность, которую клиент сохраняет в localStorage
type IdentityResponse struct {
	UserID   string     `json:"user_id"`
	Nickname string     `json:"nickname"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// NewIdentityResponse создает DTO идентичности
func NewIdentityResponse(identity *entity.UserIdentity) IdentityResponse {
	return IdentityResponse{UserID: identity.UserID, Nickname: identity.Nickname}
}

// NewIdentityResponseFromUser создает DTO идентичности из сохраненного пользователя
func NewIdentityResponseFromUser(user *entity.User) IdentityResponse {
	lastSeen := user.LastSeen
	return IdentityResponse{UserID: user.ID, Nickname: user.Nickname, LastSeen: &lastSeen}
}

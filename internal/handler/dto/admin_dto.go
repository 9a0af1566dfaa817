package dto

import (
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// AdminLoginRequest - запрос на вход администратора
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=200"`
}

// AdminResponse представляет администратора в ответе
type AdminResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLoginResponse - ответ на успешный вход
type AdminLoginResponse struct {
	Admin     AdminResponse `json:"admin"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// NewAdminResponse создает DTO администратора
func NewAdminResponse(a *entity.Admin) AdminResponse {
	return AdminResponse{ID: a.ID, Username: a.Username, CreatedAt: a.CreatedAt}
}

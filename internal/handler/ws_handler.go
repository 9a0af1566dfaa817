package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/selftest-api/internal/middleware"
	"github.com/yourusername/selftest-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения ленты админ-панели
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с настройками CORS.
func NewWSHandler(hub *websocket.Hub, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Пустой Origin - не браузерный клиент
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
				return false
			},
			EnableCompression: true,
		},
	}
}

// HandleConnection подключает администратора к ленте событий.
// Аутентификация выполняется middleware RequireAdmin.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	adminID, ok := middleware.GetAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrader уже записал ответ с ошибкой
		log.Printf("WebSocket: upgrade failed for admin %d: %v", adminID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, websocket.AdminClientID(adminID))
	log.Printf("WebSocket: admin %d connected (connection %s)", adminID, client.ConnectionID)
	client.Serve()
}

// Metrics возвращает состояние хаба
func (h *WSHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.GetMetrics())
}

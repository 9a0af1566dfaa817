package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
)

// Hub владеет множеством клиентов и рассылает им сообщения.
// Все изменения множества клиентов происходят в горутине Run.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	disconnect chan string
	broadcast  chan []byte
	done       chan struct{}

	clientCount atomic.Int64
	sent        atomic.Int64
	dropped     atomic.Int64
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		disconnect: make(chan string),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run обслуживает хаб до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	log.Println("[WSHub] Запущен")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			log.Println("[WSHub] Остановлен")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))
			log.Printf("[WSHub] Клиент подключен: admin=%s conn=%s (всего %d)", client.UserID, client.ConnectionID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				log.Printf("[WSHub] Клиент отключен: admin=%s conn=%s (всего %d)", client.UserID, client.ConnectionID, len(h.clients))
			}

		case userID := <-h.disconnect:
			closed := 0
			for client := range h.clients {
				if client.UserID == userID {
					h.remove(client)
					closed++
				}
			}
			if closed > 0 {
				log.Printf("[WSHub] Закрыто соединений %s: %d (всего %d)", userID, closed, len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent.Add(1)
				default:
					// Медленный клиент: отключаем, чтобы не блокировать остальных
					h.dropped.Add(1)
					log.Printf("[WSHub] Буфер клиента %s переполнен, отключаем", client.ConnectionID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.clientCount.Store(int64(len(h.clients)))
}

// Register добавляет клиента в хаб. Возвращает false, если хаб уже остановлен.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента из хаба
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// DisconnectUser закрывает все соединения клиента userID
func (h *Hub) DisconnectUser(userID string) {
	select {
	case h.disconnect <- userID:
	case <-h.done:
	}
}

// BroadcastJSON сериализует v и ставит сообщение в очередь рассылки.
// Если очередь заполнена, сообщение отбрасывается.
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		h.dropped.Add(1)
		return fmt.Errorf("broadcast queue is full")
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// GetMetrics возвращает счетчики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"clients": h.ClientCount(),
		"sent":    h.sent.Load(),
		"dropped": h.dropped.Load(),
	}
}

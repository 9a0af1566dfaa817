package websocket

import "time"

// Типы событий ленты админ-панели
const (
	// EventRecordCreated - пользователь сохранил запись теста
	EventRecordCreated = "record:created"

	// EventRecordDeleted - запись удалена пользователем или администратором
	EventRecordDeleted = "record:deleted"

	// EventMessageCreated - новое сообщение в гостевой книге
	EventMessageCreated = "message:created"
)

// Event - сообщение, рассылаемое подключенным администраторам
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent создает событие с текущим временем
func NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now()}
}

// Broadcaster рассылает события всем подключенным клиентам
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
}

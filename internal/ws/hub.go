package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
)

// Event is what services publish to connected POS terminals: sales being
// recorded, lots restocked, stock running low.
type Event struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	EventSaleRecorded = "sale_recorded"
	EventRestocked    = "restocked"
	EventLowStock     = "low_stock"
	EventUserStatus   = "user_status_update"
)

type Hub struct {
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	broadcast  chan []byte

	mutex   sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*websocket.Conn]bool),
	}
}

// Publish fans an event out to every connected client. Safe to call from any
// goroutine; marshal failures are logged and dropped, never returned.
func (h *Hub) Publish(eventType, message string, payload interface{}) {
	event := Event{
		Type:    eventType,
		At:      time.Now(),
		Payload: payload,
		Message: message,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("event", eventType).Warn("ws: dropping unmarshalable event")
		return
	}
	h.broadcast <- msg
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			logrus.Debug("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

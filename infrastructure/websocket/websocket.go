package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"taskflow/domain/ports"
	"taskflow/pkg/logger"
)

// Conn ส่วนของ *websocket.Conn ที่ hub ใช้
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

var errClientClosed = errors.New("websocket client closed")

type client struct {
	conn    Conn
	userID  uuid.UUID
	writeMu sync.Mutex
	closed  bool // guarded by writeMu
}

// write websocket conn ไม่รองรับ concurrent write
func (c *client) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return errClientClosed
	}
	return c.conn.WriteJSON(msg)
}

// close รอ write ที่ค้างอยู่ให้จบก่อน หลังจากนี้ conn จะไม่ถูกเขียนอีก
func (c *client) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// Hub เก็บ connection ตาม user หนึ่ง user เปิดได้หลาย tab
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[Conn]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[Conn]*client),
	}
}

func (h *Hub) Register(conn Conn, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[Conn]*client)
	}
	h.clients[userID][conn] = &client{conn: conn, userID: userID}

	logger.Debug("WebSocket client connected", "user_id", userID, "connections", len(h.clients[userID]))
}

// Unregister คืนค่าเมื่อไม่มี write ค้างบน conn แล้ว handler จึงปล่อย conn ได้ทันที
func (h *Hub) Unregister(conn Conn, userID uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[userID][conn]
	if ok {
		delete(h.clients[userID], conn)
		if len(h.clients[userID]) == 0 {
			delete(h.clients, userID)
		}
	}
	h.mu.Unlock()

	if ok {
		c.close()
		logger.Debug("WebSocket client disconnected", "user_id", userID)
	}
}

// SendToUser คืนจำนวน connection ที่ส่งสำเร็จ connection ที่เขียนไม่ได้ถูกถอดออก
func (h *Hub) SendToUser(userID uuid.UUID, msg Message) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		err := c.write(msg)
		if errors.Is(err, errClientClosed) {
			continue
		}
		if err != nil {
			logger.Warn("WebSocket write failed", "user_id", userID, "error", err)
			h.Unregister(c.conn, userID)
			continue
		}
		sent++
	}
	return sent
}

// PublishTaskEvent ส่ง event ให้เฉพาะ owner ของ task
func (h *Hub) PublishTaskEvent(ctx context.Context, event *ports.TaskEvent) error {
	h.SendToUser(event.OwnerID, Message{Type: string(event.Type), Data: event})
	return nil
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// CloseAll ใช้ตอน shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]map[Conn]*client)
	h.mu.Unlock()

	for _, conns := range clients {
		for _, c := range conns {
			c.close()
		}
	}
}

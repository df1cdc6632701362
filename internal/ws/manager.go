package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client - одно websocket-соединение, привязанное к пользователю.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	send   chan []byte
}

// NewClient оборачивает принятое соединение.
func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Manager управляет активными соединениями и доставкой сообщений по UserID.
type Manager struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager создает менеджер соединений.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		logger:  logger.Named("WSManager"),
	}
}

// Register регистрирует клиента; предыдущее соединение того же
// пользователя закрывается.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	if old, ok := m.clients[client.UserID]; ok {
		m.logger.Debug("Closing previous connection", zap.String("userID", client.UserID))
		close(old.send)
		_ = old.Conn.Close()
	}
	m.clients[client.UserID] = client
	m.mu.Unlock()

	m.logger.Info("Client registered", zap.String("userID", client.UserID))
	go client.writePump(m.logger)
	go client.readPump(m)
}

// Unregister удаляет клиента, если зарегистрировано именно это соединение.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if current, ok := m.clients[client.UserID]; ok && current == client {
		delete(m.clients, client.UserID)
		close(client.send)
	}
	m.mu.Unlock()
	m.logger.Info("Client unregistered", zap.String("userID", client.UserID))
}

// SendToUser ставит сообщение в очередь отправки пользователю.
// Возвращает false, если пользователь не подключен или очередь переполнена.
func (m *Manager) SendToUser(userID string, message []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		m.logger.Warn("Send queue full, dropping message", zap.String("userID", userID))
		return false
	}
}

// ClientCount возвращает число активных соединений.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// readPump вычитывает входящие фреймы только ради контроля жизни
// соединения: клиентских команд по этому каналу нет.
func (c *Client) readPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(1024)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("Write failed", zap.String("userID", c.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

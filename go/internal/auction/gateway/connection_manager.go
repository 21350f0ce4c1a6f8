package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
)

// CommandHandler accepts decoded client commands.
type CommandHandler interface {
	Submit(ctx context.Context, m orchestrator.Msg) error
}

// ConnectionManager manages WebSocket connections and their room subscriptions
type ConnectionManager struct {
	connections map[string]*Connection
	rooms       map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	commands CommandHandler
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// roomID is guarded by Manager.mu
	roomID string

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CommandTimeout  time.Duration
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CommandTimeout:  5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// SetCommandHandler wires the component that executes client commands.
// It must be called before the first connection is accepted.
func (cm *ConnectionManager) SetCommandHandler(h CommandHandler) {
	cm.commands = h
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.ID] = conn
}

// unregisterConnection removes a connection and closes its send queue. It
// reports whether this call did the removal.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; !exists {
		return false
	}
	delete(cm.connections, conn.ID)
	cm.leaveRoomLocked(conn)
	close(conn.Send)

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
	return true
}

func (cm *ConnectionManager) leaveRoomLocked(conn *Connection) {
	if conn.roomID == "" {
		return
	}
	if pool, ok := cm.rooms[conn.roomID]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(cm.rooms, conn.roomID)
		}
	}
	conn.roomID = ""
}

// Subscribe moves a connection into a room's broadcast pool. A connection
// belongs to at most one room.
func (cm *ConnectionManager) Subscribe(connectionID, roomID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[connectionID]
	if !ok || conn.roomID == roomID {
		return
	}
	cm.leaveRoomLocked(conn)
	if cm.rooms[roomID] == nil {
		cm.rooms[roomID] = make(map[*Connection]bool)
	}
	cm.rooms[roomID][conn] = true
	conn.roomID = roomID

	log.Debug().
		Str("connection_id", connectionID).
		Str("room_id", roomID).
		Int("room_connections", len(cm.rooms[roomID])).
		Msg("connection subscribed to room")
}

// BroadcastToRoom queues an event on every connection in the room. Events
// are enqueued synchronously so each connection sees them in call order.
func (cm *ConnectionManager) BroadcastToRoom(roomID string, evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	pool := cm.rooms[roomID]
	for conn := range pool {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	delivered := len(pool) - len(slow)
	cm.mu.RUnlock()

	cm.dropSlow(slow)

	log.Debug().
		Str("event_type", string(evt.Type)).
		Str("room_id", roomID).
		Int("connections", delivered).
		Msg("event broadcasted")
}

// SendToConnection queues an event on a single connection.
func (cm *ConnectionManager) SendToConnection(connectionID string, evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	if conn, ok := cm.connections[connectionID]; ok {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	cm.dropSlow(slow)
}

// dropSlow closes connections whose send queue is full. Their read pumps
// then report the disconnect.
func (cm *ConnectionManager) dropSlow(conns []*Connection) {
	for _, conn := range conns {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// ConnectionStats summarizes active connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		TotalConnections: len(cm.connections),
		ActiveRooms:      len(cm.rooms),
		RoomConnections:  make(map[string]int, len(cm.rooms)),
	}
	for roomID, pool := range cm.rooms {
		stats.RoomConnections[roomID] = len(pool)
	}
	return stats
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads client commands until the connection fails, then reports
// the disconnect.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
		c.submit(orchestrator.Disconnect{ConnectionID: c.ID})
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes a command and forwards it. Decoding failures
// are answered on this connection only.
func (c *Connection) handleClientMessage(message []byte) {
	msg, err := decodeCommand(c.ID, message)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Msg("rejected client message")
		c.Manager.SendToConnection(c.ID, errorEvent(commandErrorText(err)))
		return
	}
	c.submit(msg)
}

func (c *Connection) submit(msg orchestrator.Msg) {
	if c.Manager.commands == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.CommandTimeout)
	defer cancel()
	if err := c.Manager.commands.Submit(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("connection_id", c.ID).
			Str("msg_type", fmt.Sprintf("%T", msg)).
			Msg("failed to submit command")
	}
}

func errorEvent(text string) events.Event {
	data, _ := json.Marshal(events.ErrorMessagePayload{Text: text})
	return events.Event{
		ID:        uuid.New().String(),
		Type:      events.ErrorMessage,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

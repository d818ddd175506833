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
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// CursorSink receives cursor moves for the rooms a connection has joined.
type CursorSink interface {
	MoveCursor(roomID, userID string, x, y float64)
}

// ConnectionManager manages WebSocket connections and the rooms they are subscribed to.
// It implements session.Broadcaster.
type ConnectionManager struct {
	// Connections by socket id
	connections map[string]*Connection
	// Room membership by game id
	rooms map[string]map[*Connection]bool
	mu    sync.RWMutex

	sink CursorSink

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	// Event broadcasting
	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	UserID  string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// done is closed on unregister. Send is never closed.
	done chan struct{}

	// rooms is guarded by Manager.mu
	rooms map[string]bool

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
	QueueSize       int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	RoomID string
	UserID string // Optional: if set, send to every connection of this user instead of a room
	Event  *Frame
}

// ConnectionStats is served on /ws/stats.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		QueueSize:       1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1000
	}

	return &ConnectionManager{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, config.QueueSize),
	}
}

// SetCursorSink wires inbound MOVE_CURSOR frames. Call it before serving connections.
func (cm *ConnectionManager) SetCursorSink(sink CursorSink) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.sink = sink
}

// Start processes broadcast messages until ctx is cancelled, then closes every connection.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and greets it with its socket id.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		rooms:       make(map[string]bool),
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	frame, err := NewFrame(events.Connected, "", events.ConnectedPayload{SocketID: connection.ID, UserID: userID})
	if err == nil {
		if data, err := json.Marshal(frame); err == nil {
			connection.Send <- data
		}
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager and every room it joined
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; !exists {
		return
	}
	delete(cm.connections, conn.ID)
	for roomID := range conn.rooms {
		cm.leaveLocked(roomID, conn)
	}
	close(conn.done)

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID).
		Msg("connection unregistered")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// Join subscribes a socket to a room. Unknown sockets are ignored; they may live on another instance.
func (cm *ConnectionManager) Join(roomID, socketID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[socketID]
	if !ok {
		log.Debug().Str("room_id", roomID).Str("connection_id", socketID).Msg("join for unknown connection")
		return
	}
	if cm.rooms[roomID] == nil {
		cm.rooms[roomID] = make(map[*Connection]bool)
	}
	cm.rooms[roomID][conn] = true
	conn.rooms[roomID] = true
}

// Leave unsubscribes a socket from a room.
func (cm *ConnectionManager) Leave(roomID, socketID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, ok := cm.connections[socketID]; ok {
		cm.leaveLocked(roomID, conn)
	}
}

func (cm *ConnectionManager) leaveLocked(roomID string, conn *Connection) {
	delete(conn.rooms, roomID)
	if connections, exists := cm.rooms[roomID]; exists {
		delete(connections, conn)
		// Clean up empty room pools
		if len(connections) == 0 {
			delete(cm.rooms, roomID)
		}
	}
}

// Broadcast sends an event to every connection in a room
func (cm *ConnectionManager) Broadcast(roomID string, eventType events.Type, data any) {
	frame, err := NewFrame(eventType, roomID, data)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode event")
		return
	}
	cm.enqueue(BroadcastMessage{RoomID: roomID, Event: frame})
}

// NotifyUser sends an event to every connection of a user
func (cm *ConnectionManager) NotifyUser(userID string, eventType events.Type, data any) {
	frame, err := NewFrame(eventType, "", data)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode event")
		return
	}
	cm.enqueue(BroadcastMessage{UserID: userID, Event: frame})
}

func (cm *ConnectionManager) enqueue(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Str("room_id", message.RoomID).
			Str("user_id", message.UserID).
			Str("event_type", string(message.Event.Type)).
			Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast processes a broadcast message
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	var targetConnections []*Connection
	if message.UserID != "" {
		for _, conn := range cm.connections {
			if conn.UserID == message.UserID {
				targetConnections = append(targetConnections, conn)
			}
		}
	} else {
		for conn := range cm.rooms[message.RoomID] {
			targetConnections = append(targetConnections, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targetConnections) == 0 {
		return
	}

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targetConnections {
		select {
		case conn.Send <- eventData:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	if message.Event.Type != events.GameTick {
		log.Debug().
			Str("event_type", string(message.Event.Type)).
			Str("room_id", message.RoomID).
			Int("connections", len(targetConnections)).
			Msg("event broadcasted")
	}
}

// Stats returns statistics about active connections
func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	counts := make(map[string]int, len(cm.rooms))
	for roomID, connections := range cm.rooms {
		counts[roomID] = len(connections)
	}

	return ConnectionStats{
		TotalConnections: len(cm.connections),
		ActiveRooms:      len(cm.rooms),
		RoomConnections:  counts,
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
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

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
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

// handleClientMessage routes MOVE_CURSOR to the rooms this connection joined.
func (c *Connection) handleClientMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring malformed client message")
		return
	}
	if msg.Type != events.MoveCursor {
		log.Debug().Str("connection_id", c.ID).Str("type", string(msg.Type)).Msg("ignoring client message")
		return
	}

	var payload events.MoveCursorPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring malformed cursor payload")
		return
	}

	// The connection's own identity wins over the payload.
	userID := c.UserID
	if userID == "" {
		userID = payload.UserID
	}

	c.Manager.mu.RLock()
	sink := c.Manager.sink
	rooms := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		rooms = append(rooms, roomID)
	}
	c.Manager.mu.RUnlock()

	if sink == nil {
		return
	}
	for _, roomID := range rooms {
		sink.MoveCursor(roomID, userID, payload.X, payload.Y)
	}
}

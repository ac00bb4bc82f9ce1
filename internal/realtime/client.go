package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	maxMessage   = 64 * 1024
	sendBuffer   = 256
)

// Client events.
const (
	EventJoinRoom  = "join_room"
	EventLeaveRoom = "leave_room"
	EventJoined    = "joined"
	EventError     = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // kitchen displays and table devices are served from other origins
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TokenValidator resolves a bearer token to the tenant it is scoped to.
// tenantID is nil for tokens without a tenant.
type TokenValidator func(token string) (tenantID *int64, err error)

// Client represents a single WebSocket connection. When tenantID is set the
// client may only join that tenant's channel.
type Client struct {
	ID       string
	tenantID *int64
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	done     chan struct{}
	channels map[string]struct{} // guarded by hub.mu
	logger   *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, tenantID *int64, logger *zap.Logger) *Client {
	return &Client{
		ID:       uuid.NewString(),
		tenantID: tenantID,
		hub:      hub,
		conn:     conn,
		send:     make(chan WSMessage, sendBuffer),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
		logger:   logger,
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop. The token
// query parameter is optional; when given it must validate.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tenantID *int64
		if token := c.Query("token"); token != "" {
			id, err := validate(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
				return
			}
			if id == nil {
				c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "token has no restaurant"})
				return
			}
			tenantID = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(hub, conn, tenantID, logger)
		go client.writePump()
		client.readPump()
	}
}

// canJoin reports whether the client may subscribe to channel.
func (c *Client) canJoin(channel string) bool {
	if channel == "" {
		return false
	}
	return c.tenantID == nil || channel == TenantChannel(*c.tenantID)
}

func (c *Client) reply(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read", zap.String("client_id", c.ID), zap.Error(err))
			}
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))

		switch msg.Event {
		case EventJoinRoom, EventLeaveRoom:
			var channel string
			if err := json.Unmarshal(msg.Data, &channel); err != nil {
				c.reply(EventError, "room must be a string")
				continue
			}
			if msg.Event == EventLeaveRoom {
				c.hub.Leave(c, channel)
				continue
			}
			if !c.canJoin(channel) {
				c.reply(EventError, "not allowed to join "+channel)
				continue
			}
			c.hub.Join(c, channel)
			c.reply(EventJoined, channel)
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

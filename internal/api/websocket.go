package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/reportlens/backend/internal/session"
)

// WebSocket message types
const (
	MsgTypeConnected = "connected"
	MsgTypePing      = "ping"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope for all websocket traffic on the status feed.
type WSMessage struct {
	Type      string         `json:"type"`
	Event     *session.Event `json:"event,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// WebSocketHandler pushes analysis session lifecycle events to subscribers.
// The feed is outbound-only apart from ping keepalives.
type WebSocketHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a websocket handler over the session manager.
func NewWebSocketHandler(sessions *session.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection and streams session events until
// the client disconnects.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events := wsh.sessions.Subscribe()
	defer wsh.sessions.Unsubscribe(events)

	if err := ws.WriteJSON(WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	// Reader goroutine: surface pings, detect disconnect. All writes stay
	// on this goroutine since the connection allows one writer at a time.
	done := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-pings:
			if err := ws.WriteJSON(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}); err != nil {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(WSMessage{Type: ev.Type, Event: &ev, Timestamp: time.Now().UnixMilli()}); err != nil {
				return nil
			}
		}
	}
}

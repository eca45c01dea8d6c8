package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingPeriod   = 30 * time.Second
	pongWait     = 2 * pingPeriod
	maxFrameSize = 4 * 1024
)

type WSClient struct {
	Conn     *websocket.Conn
	Message  chan *WSMessage
	ID       string
	UserID   string
	RoomID   string
	done     chan struct{}
	mu       sync.Mutex
	isClosed bool
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				slog.Debug("websocket ping failed", "client", cl.ID, "error", err)
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case msg, ok := <-cl.Message:
			if !ok {
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteJSON(msg)
			cl.mu.Unlock()

			if err != nil {
				slog.Warn("websocket write failed", "client", cl.ID, "error", err)
				return
			}
		}
	}
}

// readMessage only drains control frames. Rooms are fed by the server; clients
// post through the HTTP API so every write goes through the same checks.
func (cl *WSClient) readMessage(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered from panic in websocket reader", "client", cl.ID, "panic", r)
		}

		close(cl.done)
		hub.Unregister <- cl
		slog.Info("websocket client left", "room", cl.RoomID, "user", cl.UserID)
	}()

	cl.Conn.SetReadLimit(maxFrameSize)
	_ = cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.Conn.SetPongHandler(func(string) error {
		return cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.Conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) || !isNormalClose(closeErr.Code) {
				slog.Debug("websocket read ended", "client", cl.ID, "error", err)
			}
			return
		}
	}
}

func isNormalClose(code int) bool {
	return code == websocket.CloseNormalClosure ||
		code == websocket.CloseGoingAway ||
		code == websocket.CloseNoStatusReceived
}

package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The widget is embedded on customer sites, so any origin may connect.
	// Access is decided by the session or token checks before JoinRoom.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RedisSubscriber relays a Redis pub/sub channel named after the room.
type RedisSubscriber struct {
	client *redis.Client
}

func NewRedisSubscriber(client *redis.Client) *RedisSubscriber {
	return &RedisSubscriber{client: client}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, roomID string, out chan<- *WSMessage) {
	slog.Debug("subscribing to redis channel", "room", roomID)
	subscriber := s.client.Subscribe(ctx, roomID)
	defer subscriber.Close()

	ch := subscriber.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("unsubscribed from redis channel", "room", roomID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case out <- &WSMessage{Content: msg.Payload, RoomID: roomID, Timestamp: time.Now().Unix()}:
			case <-ctx.Done():
				return
			}
		}
	}
}

type Handler struct {
	hub *Hub
}

func NewHandler(h *Hub) *Handler {
	return &Handler{hub: h}
}

// JoinRoom upgrades the connection and registers it in roomID. Callers must
// authorize the request first.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request, roomID, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.WarnContext(r.Context(), "websocket upgrade failed", "room", roomID, "error", err)
		return
	}

	cl := &WSClient{
		Conn:    conn,
		Message: make(chan *WSMessage, 10),
		ID:      userID + ":" + uuid.NewString(),
		UserID:  userID,
		RoomID:  roomID,
		done:    make(chan struct{}),
	}

	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub)
	slog.Info("websocket client joined", "room", roomID, "user", userID)
}

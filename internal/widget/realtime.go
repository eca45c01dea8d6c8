package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	chatws "support-chat-backend/internal/websocket"

	"github.com/gorilla/websocket"
)

// RealtimeEvent is one room event as delivered to a widget subscribed to its conversation.
type RealtimeEvent struct {
	RoomID    string          `json:"roomId"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Subscription is an open visitor connection to a conversation room.
type Subscription struct {
	conn *websocket.Conn
}

// DialConversation joins the conversation room as a visitor. The room is joined once it
// returns, so messages posted afterwards are delivered to Receive.
func DialConversation(ctx context.Context, wsBaseURL, conversationID, contactSessionID string) (*Subscription, error) {
	q := url.Values{}
	q.Set("role", "visitor")
	q.Set("contactSessionId", contactSessionID)
	target := strings.TrimRight(wsBaseURL, "/") + "/conversations/" + url.PathEscape(conversationID) + "?" + q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: status %d: %w", target, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	return &Subscription{conn: conn}, nil
}

// Receive calls fn for every room event until ctx is cancelled or the server closes the
// connection. The connection is closed when it returns.
func (s *Subscription) Receive(ctx context.Context, fn func(RealtimeEvent)) error {
	defer s.conn.Close()

	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	for {
		var msg chatws.WSMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading event: %w", err)
		}

		var event struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(msg.Content), &event); err != nil {
			return errors.Join(errors.New("malformed room event"), err)
		}
		fn(RealtimeEvent{RoomID: msg.RoomID, Type: event.Type, Data: event.Data, Timestamp: msg.Timestamp})
	}
}

func (s *Subscription) Close() error {
	return s.conn.Close()
}

// WatchConversation joins the conversation room as a visitor and calls fn for every event
// until ctx is cancelled or the server closes the connection.
func WatchConversation(ctx context.Context, wsBaseURL, conversationID, contactSessionID string, fn func(RealtimeEvent)) error {
	sub, err := DialConversation(ctx, wsBaseURL, conversationID, contactSessionID)
	if err != nil {
		return err
	}
	return sub.Receive(ctx, fn)
}

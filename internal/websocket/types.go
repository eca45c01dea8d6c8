package websocket

import "fmt"

const (
	EventMessageCreated      = "message.created"
	EventConversationCreated = "conversation.created"
	EventConversationStatus  = "conversation.status"
)

type Room struct {
	Id      string               `json:"id"`
	Clients map[string]*WSClient `json:"clients"`
	cancel  func()
}

type WSMessage struct {
	Content   string `json:"content"`
	RoomID    string `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

// Event is the payload published to a room; Content of the delivered WSMessage holds it as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}

// NotificationsRoom carries inbox updates for every operator of an organization.
func NotificationsRoom(organizationID string) string {
	return fmt.Sprintf("org:%s:notifications", organizationID)
}

package dto

import "support-chat-backend/internal/model"

// PageResponse is one reverse-chronological page of a listing.
type PageResponse[T any] struct {
	Page           []T    `json:"page"`
	ContinueCursor string `json:"continueCursor"`
	IsDone         bool   `json:"isDone"`
}

type ConversationResponse struct {
	ConversationID   string `json:"conversationId"`
	OrganizationID   string `json:"organizationId"`
	ContactSessionID string `json:"contactSessionId"`
	ThreadID         string `json:"threadId"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type ConversationView struct {
	Conversation   ConversationResponse    `json:"conversation"`
	ContactSession *ContactSessionResponse `json:"contactSession,omitempty"`
	LastMessage    *MessageResponse        `json:"lastMessage,omitempty"`
}

type MessageResponse struct {
	MessageID       string                 `json:"messageId"`
	ThreadID        string                 `json:"threadId"`
	Order           int64                  `json:"order"`
	Role            string                 `json:"role"`
	AuthorID        string                 `json:"authorId,omitempty"`
	AuthorName      string                 `json:"authorName,omitempty"`
	Content         string                 `json:"content"`
	ToolInvocations []model.ToolInvocation `json:"toolInvocations,omitempty"`
	CreatedAt       string                 `json:"createdAt"`
}

type CreateConversationRequest struct {
	ContactSessionID string `json:"contactSessionId"`
	OrganizationID   string `json:"organizationId"`
}

type CreateConversationResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Greeting     *MessageResponse     `json:"greeting,omitempty"`
}

type PostVisitorMessageRequest struct {
	ContactSessionID string `json:"contactSessionId"`
	Prompt           string `json:"prompt"`
}

type PostOperatorMessageRequest struct {
	Content string `json:"content"`
}

type PostMessageResponse struct {
	Conversation   ConversationResponse `json:"conversation"`
	Messages       []MessageResponse    `json:"messages"`
	AgentTriggered bool                 `json:"agentTriggered"`
}

type SetConversationStatusRequest struct {
	Status string `json:"status"`
}

type EnhanceRequest struct {
	Content string `json:"content"`
}

type EnhanceResponse struct {
	Content string `json:"content"`
}

// StatusEvent is published to the conversation and notifications rooms on every transition.
type StatusEvent struct {
	ConversationID string `json:"conversationId"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
}

type MessageEvent struct {
	ConversationID string          `json:"conversationId"`
	Message        MessageResponse `json:"message"`
}

package model

type ConversationStatus string

const (
	ConversationStatusUnresolved ConversationStatus = "unresolved"
	ConversationStatusEscalated  ConversationStatus = "escalated"
	ConversationStatusResolved   ConversationStatus = "resolved"
)

func (s ConversationStatus) Valid() bool {
	switch s {
	case ConversationStatusUnresolved, ConversationStatusEscalated, ConversationStatusResolved:
		return true
	}
	return false
}

func OrganizationStatusKey(organizationID string, status ConversationStatus) string {
	return OrganizationScopedPK(organizationID, string(status))
}

type ConversationItem struct {
	ConversationID   string             `dynamodbav:"conversationId"`
	OrganizationID   string             `dynamodbav:"organizationId"`
	ContactSessionID string             `dynamodbav:"contactSessionId"`
	ThreadID         string             `dynamodbav:"threadId"`
	Status           ConversationStatus `dynamodbav:"status"`
	OrgStatus        string             `dynamodbav:"orgStatus"`
	CreatedAt        string             `dynamodbav:"createdAt"`
	UpdatedAt        string             `dynamodbav:"updatedAt"`
}

// ThreadItem holds the ordering counter for a conversation's messages.
type ThreadItem struct {
	ThreadID       string `dynamodbav:"threadId"`
	OrganizationID string `dynamodbav:"organizationId"`
	NextOrder      int64  `dynamodbav:"nextOrder"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type ToolInvocation struct {
	Name      string `dynamodbav:"name" json:"name"`
	Arguments string `dynamodbav:"arguments,omitempty" json:"arguments,omitempty"`
	Result    string `dynamodbav:"result,omitempty" json:"result,omitempty"`
}

type MessageItem struct {
	ThreadID        string           `dynamodbav:"threadId"`
	Order           int64            `dynamodbav:"order"`
	MessageID       string           `dynamodbav:"messageId"`
	Role            MessageRole      `dynamodbav:"role"`
	AuthorID        string           `dynamodbav:"authorId,omitempty"`
	AuthorName      string           `dynamodbav:"authorName,omitempty"`
	Content         string           `dynamodbav:"content"`
	ToolInvocations []ToolInvocation `dynamodbav:"toolInvocations,omitempty"`
	CreatedAt       string           `dynamodbav:"createdAt"`
}

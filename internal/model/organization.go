package model

type OrganizationItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	Name           string `dynamodbav:"name"`
	MaxMemberships int    `dynamodbav:"maxMemberships"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

type OperatorItem struct {
	PK             string `dynamodbav:"pk"`
	OrganizationID string `dynamodbav:"organizationId"`
	OperatorID     string `dynamodbav:"operatorId"`
	Email          string `dynamodbav:"email"`
	Name           string `dynamodbav:"name"`
	Role           string `dynamodbav:"role"`
	Status         string `dynamodbav:"status"`
	PasswordHash   string `dynamodbav:"passwordHash"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

const SubscriptionStatusActive = "active"

type SubscriptionItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	Status         string `dynamodbav:"status"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

// IsActive reports whether the plan gates (AI replies, enhancement) are open.
func (s *SubscriptionItem) IsActive() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}

// DefaultGreetMessage opens every conversation when the organization has not set its own.
const DefaultGreetMessage = "Hi! How can I help you today?"

type DefaultSuggestions struct {
	Suggestion1 string `dynamodbav:"suggestion1,omitempty" json:"suggestion1,omitempty"`
	Suggestion2 string `dynamodbav:"suggestion2,omitempty" json:"suggestion2,omitempty"`
	Suggestion3 string `dynamodbav:"suggestion3,omitempty" json:"suggestion3,omitempty"`
}

type VapiSettings struct {
	AssistantID string `dynamodbav:"assistantId,omitempty" json:"assistantId,omitempty"`
	PhoneNumber string `dynamodbav:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
}

type WidgetSettingsItem struct {
	OrganizationID     string             `dynamodbav:"organizationId"`
	GreetMessage       string             `dynamodbav:"greetMessage"`
	DefaultSuggestions DefaultSuggestions `dynamodbav:"defaultSuggestions"`
	VapiSettings       VapiSettings       `dynamodbav:"vapiSettings"`
	UpdatedAt          string             `dynamodbav:"updatedAt"`
}

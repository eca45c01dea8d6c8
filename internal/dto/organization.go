package dto

import "support-chat-backend/internal/model"

type ValidateOrganizationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type WidgetSettingsRequest struct {
	GreetMessage       string                   `json:"greetMessage"`
	DefaultSuggestions model.DefaultSuggestions `json:"defaultSuggestions"`
	VapiSettings       model.VapiSettings       `json:"vapiSettings"`
}

type WidgetSettingsResponse struct {
	OrganizationID     string                   `json:"organizationId"`
	GreetMessage       string                   `json:"greetMessage"`
	DefaultSuggestions model.DefaultSuggestions `json:"defaultSuggestions"`
	VapiSettings       model.VapiSettings       `json:"vapiSettings"`
	UpdatedAt          string                   `json:"updatedAt,omitempty"`
}

type SubscriptionResponse struct {
	OrganizationID string `json:"organizationId"`
	Status         string `json:"status"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

type BillingWebhookResponse struct {
	EventType string `json:"eventType"`
	Handled   bool   `json:"handled"`
}

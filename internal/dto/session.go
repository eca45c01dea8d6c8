package dto

import "support-chat-backend/internal/model"

type CreateContactSessionRequest struct {
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	OrganizationID string                 `json:"organizationId"`
	Metadata       *model.SessionMetadata `json:"metadata,omitempty"`
}

type ContactSessionRequest struct {
	ContactSessionID string `json:"contactSessionId"`
}

type ContactSessionResponse struct {
	ContactSessionID string                 `json:"contactSessionId"`
	OrganizationID   string                 `json:"organizationId"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	Metadata         *model.SessionMetadata `json:"metadata,omitempty"`
	CreatedAt        string                 `json:"createdAt"`
	ExpiresAt        int64                  `json:"expiresAt"`
}

type ValidateContactSessionResponse struct {
	Valid          bool                    `json:"valid"`
	Reason         string                  `json:"reason,omitempty"`
	ContactSession *ContactSessionResponse `json:"contactSession,omitempty"`
}

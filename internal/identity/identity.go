package identity

import (
	"strings"

	"support-chat-backend/internal/apperror"
)

// Operator is the authenticated dashboard user attached to a request.
type Operator struct {
	OperatorID     string
	OrganizationID string
	Email          string
	Name           string
}

// Require fails with UNAUTHORIZED unless both the operator and its organization are known.
func (o Operator) Require() error {
	if strings.TrimSpace(o.OperatorID) == "" {
		return apperror.Unauthorized("Identity not found")
	}
	if strings.TrimSpace(o.OrganizationID) == "" {
		return apperror.Unauthorized("Organization not found")
	}
	return nil
}

// DisplayName is the author name shown on operator replies.
func (o Operator) DisplayName() string {
	if name := strings.TrimSpace(o.Name); name != "" {
		return name
	}
	return o.Email
}

package dto

type RegisterRequest struct {
	OrganizationName string `json:"organizationName"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type LoginRequest struct {
	OrganizationID string `json:"organizationId,omitempty"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organizationId"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type OrganizationResponse struct {
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	MaxMemberships int    `json:"maxMemberships"`
	CreatedAt      string `json:"createdAt"`
}

type OperatorResponse struct {
	OperatorID     string `json:"operatorId"`
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type MembershipResponse struct {
	OperatorID     string `json:"operatorId"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	IsDefault      bool   `json:"isDefault"`
}

type AuthResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken,omitempty"`
	Operator     OperatorResponse     `json:"operator"`
	Organization OrganizationResponse `json:"organization"`
	Memberships  []MembershipResponse `json:"memberships,omitempty"`
}

type MeResponse struct {
	Operator     OperatorResponse     `json:"operator"`
	Organization OrganizationResponse `json:"organization"`
}

package model

type SessionMetadata struct {
	UserAgent        string   `dynamodbav:"userAgent,omitempty" json:"userAgent,omitempty"`
	Language         string   `dynamodbav:"language,omitempty" json:"language,omitempty"`
	Languages        []string `dynamodbav:"languages,omitempty" json:"languages,omitempty"`
	Platform         string   `dynamodbav:"platform,omitempty" json:"platform,omitempty"`
	Vendor           string   `dynamodbav:"vendor,omitempty" json:"vendor,omitempty"`
	ScreenResolution string   `dynamodbav:"screenResolution,omitempty" json:"screenResolution,omitempty"`
	ViewportSize     string   `dynamodbav:"viewportSize,omitempty" json:"viewportSize,omitempty"`
	Timezone         string   `dynamodbav:"timezone,omitempty" json:"timezone,omitempty"`
	TimezoneOffset   *int     `dynamodbav:"timezoneOffset,omitempty" json:"timezoneOffset,omitempty"`
	CookieEnabled    *bool    `dynamodbav:"cookieEnabled,omitempty" json:"cookieEnabled,omitempty"`
	Referrer         string   `dynamodbav:"referrer,omitempty" json:"referrer,omitempty"`
	CurrentURL       string   `dynamodbav:"currentUrl,omitempty" json:"currentUrl,omitempty"`
}

// ContactSessionItem is an anonymous visitor identity. ExpiresAt is in unix milliseconds.
type ContactSessionItem struct {
	ContactSessionID string           `dynamodbav:"contactSessionId"`
	OrganizationID   string           `dynamodbav:"organizationId"`
	Name             string           `dynamodbav:"name"`
	Email            string           `dynamodbav:"email"`
	Metadata         *SessionMetadata `dynamodbav:"metadata,omitempty"`
	CreatedAt        string           `dynamodbav:"createdAt"`
	ExpiresAt        int64            `dynamodbav:"expiresAt"`
}

package dto

type VoiceCredentialsRequest struct {
	PublicAPIKey  string `json:"publicApiKey"`
	PrivateAPIKey string `json:"privateApiKey"`
}

type PluginResponse struct {
	OrganizationID string `json:"organizationId"`
	Service        string `json:"service"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type KnowledgeEntryRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type KnowledgeEntryResponse struct {
	EntryID   string `json:"entryId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	MimeType  string `json:"mimeType"`
	CreatedAt string `json:"createdAt"`
}

package model

type KnowledgeEntryItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	EntryID        string `dynamodbav:"entryId"`
	Title          string `dynamodbav:"title"`
	Content        string `dynamodbav:"content"`
	MimeType       string `dynamodbav:"mimeType"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

package model

const PluginServiceVapi = "vapi"

type PluginItem struct {
	PK             string `dynamodbav:"pk"`
	OrganizationID string `dynamodbav:"organizationId"`
	Service        string `dynamodbav:"service"`
	SecretName     string `dynamodbav:"secretName"`
	CreatedAt      string `dynamodbav:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

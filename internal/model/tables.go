package model

import "fmt"

const (
	OrganizationsTable    = "Organizations"
	OperatorsTable        = "Operators"
	ContactSessionsTable  = "ContactSessions"
	ConversationsTable    = "Conversations"
	ThreadsTable          = "Threads"
	MessagesTable         = "Messages"
	PluginsTable          = "Plugins"
	SubscriptionsTable    = "Subscriptions"
	WidgetSettingsTable   = "WidgetSettings"
	KnowledgeEntriesTable = "KnowledgeEntries"
)

// byOrganization, byOrganizationStatus and byContactSession sort on createdAt. It never
// changes, so a listing cursor stays valid while conversations are updated.
const (
	OperatorsByEmailIndex              = "byEmail"
	ConversationsByThreadIndex         = "byThread"
	ConversationsByOrganizationIndex   = "byOrganization"
	ConversationsByOrgStatusIndex      = "byOrganizationStatus"
	ConversationsByContactSessionIndex = "byContactSession"
)

func OrganizationScopedPK(organizationID, entityID string) string {
	return fmt.Sprintf("%s#%s", organizationID, entityID)
}

// Page is a reverse-chronological slice of a listing.
type Page[T any] struct {
	Page           []T
	ContinueCursor string
	IsDone         bool
}

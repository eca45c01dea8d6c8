package conversation

import "support-chat-backend/internal/model"

// ShouldTriggerAgent decides whether a visitor message is answered by the AI agent.
func ShouldTriggerAgent(status model.ConversationStatus, subscription *model.SubscriptionItem) bool {
	return status == model.ConversationStatusUnresolved && subscription.IsActive()
}

const (
	dispatchAgent        = "agent"
	dispatchRecordOnly   = "record_only"
	dispatchAgentFailure = "agent_error"
)

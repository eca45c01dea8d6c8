package conversation

import (
	"context"
	"errors"
	"strings"

	"support-chat-backend/internal/agent"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/llm"
	"support-chat-backend/internal/model"

	"github.com/google/uuid"
)

// PostVisitorMessage records a visitor message and, when dispatch fires, the
// agent's reply together with any status change its tools requested.
func (s *Service) PostVisitorMessage(ctx context.Context, contactSessionID, threadID, prompt string) (Posted, error) {
	session, err := s.deps.Sessions.Require(ctx, contactSessionID)
	if err != nil {
		return Posted{}, err
	}
	conversation, err := s.loadByThread(ctx, threadID)
	if err != nil {
		return Posted{}, err
	}
	if conversation.ContactSessionID != session.ContactSessionID {
		return Posted{}, apperror.Unauthorized("Incorrect session")
	}
	if _, err := Transition(conversation.Status, EventVisitorMessage); err != nil {
		return Posted{}, apperror.BadRequest("Conversation resolved")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Posted{}, apperror.BadRequest("Message is required")
	}
	if len(prompt) > maxMessageLength {
		return Posted{}, apperror.BadRequest("Message is too long")
	}

	if _, err := s.deps.Sessions.Refresh(ctx, session.ContactSessionID); err != nil {
		return Posted{}, err
	}

	var subscription *model.SubscriptionItem
	if s.deps.Organizations != nil {
		subscription, err = s.deps.Organizations.GetSubscription(ctx, conversation.OrganizationID)
		if err != nil {
			return Posted{}, err
		}
	}

	userMessage := model.MessageItem{
		ThreadID:   conversation.ThreadID,
		MessageID:  uuid.NewString(),
		Role:       model.MessageRoleUser,
		AuthorID:   session.ContactSessionID,
		AuthorName: session.Name,
		Content:    prompt,
	}

	if !ShouldTriggerAgent(conversation.Status, subscription) || s.deps.Agent == nil {
		s.deps.Metrics.observeDispatch(dispatchRecordOnly)
		return s.append(ctx, conversation, conversation.Status, EventVisitorMessage, []model.MessageItem{userMessage}, false)
	}

	history, err := s.history(ctx, conversation.ThreadID)
	if err != nil {
		return Posted{}, err
	}

	recorded := &intents{}
	generation, err := s.deps.Agent.Generate(ctx, agent.GenerateRequest{
		History: history,
		Prompt:  prompt,
		Tools:   supportTools(s.deps.Knowledge, conversation.OrganizationID, recorded),
	})
	if err != nil {
		s.deps.Metrics.observeDispatch(dispatchAgentFailure)
		return Posted{}, apperror.Internal("support agent failed", err)
	}
	s.deps.Metrics.observeDispatch(dispatchAgent)

	reply := model.MessageItem{
		ThreadID:        conversation.ThreadID,
		MessageID:       uuid.NewString(),
		Role:            model.MessageRoleAssistant,
		AuthorName:      s.deps.AgentName,
		Content:         generation.Reply,
		ToolInvocations: toolInvocations(generation.ToolInvocations),
	}

	next := applyEvents(conversation.Status, recorded.list())
	return s.append(ctx, conversation, next, agentEvent(conversation.Status, next), []model.MessageItem{userMessage, reply}, true)
}

// PostOperatorMessage appends a human reply. An unresolved conversation is escalated
// in the same write; a resolved one rejects the reply.
func (s *Service) PostOperatorMessage(ctx context.Context, op identity.Operator, conversationID, text string) (Posted, error) {
	conversation, err := s.operatorConversation(ctx, op, conversationID)
	if err != nil {
		return Posted{}, err
	}
	next, err := Transition(conversation.Status, EventOperatorReply)
	if err != nil {
		return Posted{}, apperror.BadRequest("Conversation resolved")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Posted{}, apperror.BadRequest("Message is required")
	}
	if len(text) > maxMessageLength {
		return Posted{}, apperror.BadRequest("Message is too long")
	}

	message := model.MessageItem{
		ThreadID:   conversation.ThreadID,
		MessageID:  uuid.NewString(),
		Role:       model.MessageRoleAssistant,
		AuthorID:   op.OperatorID,
		AuthorName: op.DisplayName(),
		Content:    text,
	}
	return s.append(ctx, conversation, next, EventOperatorReply, []model.MessageItem{message}, false)
}

// EnhanceOperatorDraft rewrites a draft reply. It is a pro plan feature.
func (s *Service) EnhanceOperatorDraft(ctx context.Context, op identity.Operator, text string) (string, error) {
	if err := op.Require(); err != nil {
		return "", err
	}

	var subscription *model.SubscriptionItem
	if s.deps.Organizations != nil {
		var err error
		subscription, err = s.deps.Organizations.GetSubscription(ctx, op.OrganizationID)
		if err != nil {
			return "", err
		}
	}
	if !subscription.IsActive() {
		return "", apperror.BadRequest("Missing subscription: enhancing replies requires the pro plan")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.BadRequest("Message is required")
	}
	if s.deps.Enhancer == nil {
		return "", apperror.Internal("enhancer not configured", errors.New("nil enhancer"))
	}

	enhanced, err := s.deps.Enhancer.Enhance(ctx, text)
	if err != nil {
		return "", apperror.Internal("failed to enhance message", err)
	}
	return enhanced, nil
}

// append assigns order keys and commits messages plus the status move atomically.
func (s *Service) append(
	ctx context.Context,
	conversation model.ConversationItem,
	next model.ConversationStatus,
	event Event,
	messages []model.MessageItem,
	agentTriggered bool,
) (Posted, error) {
	first, err := s.repo.ReserveMessageOrders(ctx, conversation.ThreadID, len(messages))
	if err != nil {
		return Posted{}, apperror.Internal("failed to allocate message order", err)
	}

	now := s.timestamp()
	for i := range messages {
		messages[i].Order = first + int64(i)
		messages[i].CreatedAt = now
	}

	if err := s.repo.AppendMessages(ctx, conversation, next, messages, now); err != nil {
		return Posted{}, writeError(err, "failed to save messages")
	}
	s.deps.Metrics.observeTransition(string(conversation.Status), string(next), string(event))

	previous := conversation.Status
	conversation.Status = next
	conversation.OrgStatus = model.OrganizationStatusKey(conversation.OrganizationID, next)
	conversation.UpdatedAt = now

	return Posted{
		Conversation:   conversation,
		Messages:       messages,
		PreviousStatus: previous,
		AgentTriggered: agentTriggered,
	}, nil
}

// history returns the most recent thread messages oldest first.
func (s *Service) history(ctx context.Context, threadID string) ([]agent.Turn, error) {
	page, err := s.repo.ListMessages(ctx, threadID, historyLimit, "")
	if err != nil {
		return nil, apperror.Internal("failed to load thread history", err)
	}

	turns := make([]agent.Turn, 0, len(page.Page))
	for i := len(page.Page) - 1; i >= 0; i-- {
		message := page.Page[i]
		role := llm.RoleAssistant
		if message.Role == model.MessageRoleUser {
			role = llm.RoleUser
		}
		turns = append(turns, agent.Turn{Role: role, Content: message.Content})
	}
	return turns, nil
}

func agentEvent(from, to model.ConversationStatus) Event {
	switch {
	case to == model.ConversationStatusResolved && from != to:
		return EventAgentResolve
	case to == model.ConversationStatusEscalated && from != to:
		return EventAgentEscalate
	}
	return EventVisitorMessage
}

func toolInvocations(in []agent.ToolInvocation) []model.ToolInvocation {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.ToolInvocation, 0, len(in))
	for _, inv := range in {
		out = append(out, model.ToolInvocation{Name: inv.Name, Arguments: inv.Arguments, Result: inv.Result})
	}
	return out
}

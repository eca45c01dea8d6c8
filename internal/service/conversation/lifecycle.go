package conversation

import (
	"errors"

	"support-chat-backend/internal/model"
)

// Event is anything that may move a conversation between statuses.
type Event string

const (
	EventVisitorMessage Event = "visitorMessage"
	EventOperatorReply  Event = "operatorReply"
	EventOperatorToggle Event = "operatorToggle"
	EventAgentEscalate  Event = "agentEscalate"
	EventAgentResolve   Event = "agentResolve"
)

var ErrTransitionRejected = errors.New("conversation: transition rejected")

var transitions = map[model.ConversationStatus]map[Event]model.ConversationStatus{
	model.ConversationStatusUnresolved: {
		EventVisitorMessage: model.ConversationStatusUnresolved,
		EventOperatorReply:  model.ConversationStatusEscalated,
		EventOperatorToggle: model.ConversationStatusEscalated,
		EventAgentEscalate:  model.ConversationStatusEscalated,
		EventAgentResolve:   model.ConversationStatusResolved,
	},
	model.ConversationStatusEscalated: {
		EventVisitorMessage: model.ConversationStatusEscalated,
		EventOperatorReply:  model.ConversationStatusEscalated,
		EventOperatorToggle: model.ConversationStatusResolved,
		EventAgentEscalate:  model.ConversationStatusEscalated,
		EventAgentResolve:   model.ConversationStatusResolved,
	},
	// A resolved conversation only reopens through the operator toggle.
	model.ConversationStatusResolved: {
		EventOperatorToggle: model.ConversationStatusUnresolved,
	},
}

// Transition returns the status reached from `from` on ev, or ErrTransitionRejected.
func Transition(from model.ConversationStatus, ev Event) (model.ConversationStatus, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, ErrTransitionRejected
	}
	return next, nil
}

// NextStatus is the operator toggle cycle unresolved -> escalated -> resolved -> unresolved.
func NextStatus(current model.ConversationStatus) model.ConversationStatus {
	next, err := Transition(current, EventOperatorToggle)
	if err != nil {
		return model.ConversationStatusUnresolved
	}
	return next
}

// applyEvents folds events over from, skipping any the table rejects.
func applyEvents(from model.ConversationStatus, events []Event) model.ConversationStatus {
	status := from
	for _, ev := range events {
		if next, err := Transition(status, ev); err == nil {
			status = next
		}
	}
	return status
}

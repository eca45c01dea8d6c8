package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"support-chat-backend/internal/agent"
)

const knowledgeResultLimit = 3

// intents collects the status changes requested by agent tools during one generation.
type intents struct {
	mu     sync.Mutex
	events []Event
}

func (i *intents) record(ev Event) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, ev)
}

func (i *intents) list() []Event {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Event(nil), i.events...)
}

var emptyParameters = json.RawMessage(`{"type":"object","properties":{}}`)

type statusTool struct {
	name        string
	description string
	event       Event
	result      string
	intents     *intents
}

func (t *statusTool) Name() string { return t.name }
func (t *statusTool) Description() string { return t.description }
func (t *statusTool) Parameters() json.RawMessage { return emptyParameters }
func (t *statusTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	t.intents.record(t.event)
	return t.result, nil
}

type searchTool struct {
	knowledge      KnowledgeSearcher
	organizationID string
}

func (t *searchTool) Name() string { return "searchKnowledgeBase" }

func (t *searchTool) Description() string {
	return "Search the organization's knowledge base for information that answers the visitor's question."
}

func (t *searchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"What to look up"}},"required":["query"]}`)
}

func (t *searchTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", errors.New("query is required")
	}
	if t.knowledge == nil {
		return "No relevant information found in the knowledge base.", nil
	}

	entries, err := t.knowledge.Search(ctx, t.organizationID, query, knowledgeResultLimit)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}

	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n%s", entry.Title, entry.Content)
	}
	return b.String(), nil
}

// supportTools builds the per-message tool set; status tools only record intents.
func supportTools(knowledge KnowledgeSearcher, organizationID string, recorded *intents) *agent.Registry {
	return agent.NewRegistry(
		&statusTool{
			name:        "resolveConversation",
			description: "Resolve the conversation once the visitor's question is answered or they say goodbye.",
			event:       EventAgentResolve,
			result:      "Conversation resolved",
			intents:     recorded,
		},
		&statusTool{
			name:        "escalateConversation",
			description: "Hand the conversation to a human operator when the visitor asks for one or you cannot help.",
			event:       EventAgentEscalate,
			result:      "Conversation escalated to a human operator",
			intents:     recorded,
		},
		&searchTool{knowledge: knowledge, organizationID: organizationID},
	)
}

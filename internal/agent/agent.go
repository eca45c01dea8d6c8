package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"support-chat-backend/internal/llm"
)

const (
	DefaultName          = "Support Agent"
	DefaultMaxRounds     = 4
	DefaultContextTokens = 8000
)

var (
	ErrMaxRounds  = errors.New("agent: tool rounds exhausted")
	ErrEmptyReply = errors.New("agent: model returned an empty reply")
)

// Agent produces a reply to the latest visitor prompt.
type Agent interface {
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
}

// Turn is one prior message of the thread, oldest first.
type Turn struct {
	Role    string
	Content string
}

type GenerateRequest struct {
	History []Turn
	Prompt  string
	Tools   *Registry
}

type ToolInvocation struct {
	Name      string
	Arguments string
	Result    string
}

type Generation struct {
	Reply           string
	ToolInvocations []ToolInvocation
}

type Config struct {
	Name          string
	SystemPrompt  string
	MaxRounds     int
	ContextTokens int
}

type SupportAgent struct {
	provider llm.Provider
	counter  TokenCounter
	cfg      Config
}

func NewSupportAgent(provider llm.Provider, counter TokenCounter, cfg Config) *SupportAgent {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SupportSystemPrompt
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.ContextTokens <= 0 {
		cfg.ContextTokens = DefaultContextTokens
	}
	if counter == nil {
		counter = ApproxCounter{}
	}
	return &SupportAgent{provider: provider, counter: counter, cfg: cfg}
}

func (a *SupportAgent) Name() string {
	return a.cfg.Name
}

func (a *SupportAgent) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	messages := a.buildMessages(req)
	tools := req.Tools.AsLLMTools()

	var gen Generation
	for round := 0; round < a.cfg.MaxRounds; round++ {
		resp, err := a.provider.Complete(ctx, messages, tools)
		if err != nil {
			return Generation{}, fmt.Errorf("agent completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			gen.Reply = strings.TrimSpace(resp.Content)
			if gen.Reply == "" && len(gen.ToolInvocations) > 0 {
				gen.Reply = gen.ToolInvocations[len(gen.ToolInvocations)-1].Result
			}
			if gen.Reply == "" {
				return Generation{}, ErrEmptyReply
			}
			return gen, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := a.execute(ctx, req.Tools, call)
			gen.ToolInvocations = append(gen.ToolInvocations, ToolInvocation{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
				Result:    result,
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return Generation{}, fmt.Errorf("%w after %d rounds", ErrMaxRounds, a.cfg.MaxRounds)
}

func (a *SupportAgent) execute(ctx context.Context, tools *Registry, call llm.ToolCall) string {
	tool, ok := tools.Get(call.Function.Name)
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	args := json.RawMessage(call.Function.Arguments)
	if len(strings.TrimSpace(call.Function.Arguments)) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return "error: " + err.Error()
	}
	return result
}

// buildMessages keeps the newest history turns that fit in the context budget.
func (a *SupportAgent) buildMessages(req GenerateRequest) []llm.Message {
	budget := a.cfg.ContextTokens - a.counter.Count(a.cfg.SystemPrompt) - a.counter.Count(req.Prompt)

	start := len(req.History)
	for i := len(req.History) - 1; i >= 0; i-- {
		cost := a.counter.Count(req.History[i].Content)
		if cost > budget {
			break
		}
		budget -= cost
		start = i
	}

	messages := make([]llm.Message, 0, len(req.History)-start+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.cfg.SystemPrompt})
	for _, turn := range req.History[start:] {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Prompt})
	return messages
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"support-chat-backend/internal/llm"
)

type Enhancer struct {
	provider llm.Provider
	prompt   string
}

func NewEnhancer(provider llm.Provider) *Enhancer {
	return &Enhancer{provider: provider, prompt: EnhanceSystemPrompt}
}

// Enhance rewrites an operator draft with a single completion call.
func (e *Enhancer) Enhance(ctx context.Context, draft string) (string, error) {
	resp, err := e.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: e.prompt},
		{Role: llm.RoleUser, Content: draft},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("enhance completion: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"support-chat-backend/internal/agent"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/env"
	internaljwt "support-chat-backend/internal/jwt"
	"support-chat-backend/internal/llm"
	"support-chat-backend/internal/llm/openai"
	"support-chat-backend/internal/logging"
	"support-chat-backend/internal/secrets"
	authsvc "support-chat-backend/internal/service/auth"
	"support-chat-backend/internal/service/billing"
	"support-chat-backend/internal/service/conversation"
	"support-chat-backend/internal/service/knowledge"
	"support-chat-backend/internal/service/organization"
	"support-chat-backend/internal/service/session"
	"support-chat-backend/internal/service/voice"
	"support-chat-backend/internal/service/voice/vapi"
	"support-chat-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime holds the process-wide clients every server starts with.
type Runtime struct {
	DB        *database.Database
	AuthRedis *redis.Client
	ChatRedis *redis.Client
}

// Setup loads configuration, installs the logger and connects the shared clients.
func Setup(ctx context.Context) (*Runtime, error) {
	if err := env.Load(env.Base...); err != nil {
		return nil, err
	}
	logging.Setup(env.GetOrDefault(env.LogLevel, "info"))

	authRedis := redis.NewClient(&redis.Options{
		Addr:     env.Get(env.AuthRedisURL),
		Password: env.Get(env.AuthRedisPass),
		DB:       0,
	})
	chatRedis := redis.NewClient(&redis.Options{
		Addr:     env.Get(env.ChatRedisURL),
		Password: env.Get(env.ChatRedisPass),
		DB:       0,
	})
	internaljwt.Init(env.Get(env.UserSecretKey), authRedis)

	db, err := database.NewDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("db init failed: %w", err)
	}

	return &Runtime{DB: db, AuthRedis: authRedis, ChatRedis: chatRedis}, nil
}

func (r *Runtime) Close() {
	_ = r.AuthRedis.Close()
	_ = r.ChatRedis.Close()
}

// Services is the full set of domain services the routers draw from.
type Services struct {
	Sessions      *session.Service
	Organizations *organization.Service
	Conversations *conversation.Service
	Knowledge     *knowledge.Service
	Voice         *voice.Service
	Auth          *authsvc.Service
	// Billing is nil when no webhook secret is configured.
	Billing   *billing.Service
	Publisher websocket.Publisher
}

func NewServices(ctx context.Context, rt *Runtime, reg prometheus.Registerer) (*Services, error) {
	store, err := secrets.NewSecretsManagerStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets init failed: %w", err)
	}

	organizations := organization.New(rt.DB)
	sessions := session.New(rt.DB, organizations, session.Config{
		Duration:         env.GetDuration(env.SessionDuration, session.DefaultDuration),
		RefreshThreshold: env.GetDuration(env.SessionRefreshWindow, session.DefaultRefreshThreshold),
	})
	knowledgeBase := knowledge.New(rt.DB)

	llmConfig := llm.Config{
		BaseURL:   env.Get(env.LLMBaseURL),
		APIKey:    env.Get(env.LLMAPIKey),
		Model:     env.GetOrDefault(env.LLMModel, "gemini-2.5-flash"),
		MaxTokens: env.GetInt(env.LLMMaxTokens, 1024),
	}
	provider := openai.New(llmConfig)

	var counter agent.TokenCounter = agent.ApproxCounter{}
	if tc, err := agent.NewTiktokenCounter(llmConfig.Model); err != nil {
		slog.Warn("tokenizer unavailable, using approximate counts", "model", llmConfig.Model, "error", err)
	} else {
		counter = tc
	}

	agentName := env.GetOrDefault(env.AgentName, agent.DefaultName)
	supportAgent := agent.NewSupportAgent(provider, counter, agent.Config{
		Name:          agentName,
		ContextTokens: env.GetInt(env.AgentContextTokens, agent.DefaultContextTokens),
	})

	conversations := conversation.New(rt.DB, conversation.Dependencies{
		Sessions:      sessions,
		Organizations: organizations,
		Knowledge:     knowledgeBase,
		Agent:         supportAgent,
		AgentName:     agentName,
		Enhancer:      agent.NewEnhancer(provider),
		Metrics:       conversation.NewMetrics(reg),
	})

	services := &Services{
		Sessions:      sessions,
		Organizations: organizations,
		Conversations: conversations,
		Knowledge:     knowledgeBase,
		Voice:         voice.New(rt.DB, store, vapi.New(env.GetOrDefault(env.VapiBaseURL, vapi.DefaultBaseURL))),
		Auth:          authsvc.New(rt.DB),
		Publisher:     websocket.NewRedisPublisher(rt.ChatRedis),
	}

	if secret := env.Get(env.BillingWebhookSecret); secret != "" {
		services.Billing, err = billing.New(secret, organizations)
		if err != nil {
			return nil, fmt.Errorf("billing init failed: %w", err)
		}
	} else {
		slog.Warn("billing webhook secret not set, webhook disabled")
	}

	return services, nil
}

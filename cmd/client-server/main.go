package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/router"
	"support-chat-backend/internal/app"
	"support-chat-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "/api/client/v1"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Setup(ctx)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	services, err := app.NewServices(ctx, rt, prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("service init failed", "error", err)
		os.Exit(1)
	}

	queueManager := queue.NewRequestQueueManager(10, 10)
	defer queueManager.Shutdown()

	server := api.NewAPIServer(
		":81",
		queueManager,
		router.UtilsRoutes(prefix, "client"),
		router.AuthRoutes(prefix, services.Auth),
		router.ConversationClientRoutes(prefix, services.Conversations, services.Publisher),
		router.OrganizationClientRoutes(prefix, services.Organizations),
		router.VoiceRoutes(prefix, services.Voice),
		router.KnowledgeRoutes(prefix, services.Knowledge),
	)

	if err := server.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

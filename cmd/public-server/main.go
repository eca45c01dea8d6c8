package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
	"support-chat-backend/internal/api/router"
	"support-chat-backend/internal/app"
	"support-chat-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "/api/public/v1"

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

	var billing endpoints.BillingService
	if services.Billing != nil {
		billing = services.Billing
	}

	queueManager := queue.NewRequestQueueManager(10, 10)
	defer queueManager.Shutdown()

	server := api.NewAPIServer(
		":82",
		queueManager,
		router.UtilsRoutes(prefix, "public"),
		router.SessionRoutes(prefix, services.Sessions),
		router.OrganizationPublicRoutes(prefix, services.Organizations, services.Voice),
		router.ConversationPublicRoutes(prefix, services.Conversations, services.Publisher),
		router.BillingRoutes(prefix, billing),
	)

	if err := server.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

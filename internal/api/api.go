package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"support-chat-backend/internal/api/middleware"
	"support-chat-backend/internal/env"
	"support-chat-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

var defaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
	cors                middleware.CORSConfig
}

func NewAPIServer(listenAddr string, rqm *queue.RequestQueueManager, registrars ...RouteRegistrar) *APIServer {
	return NewAPIServerWithRegistry(prometheus.DefaultRegisterer, listenAddr, rqm, registrars...)
}

func NewAPIServerWithRegistry(reg prometheus.Registerer, listenAddr string, rqm *queue.RequestQueueManager, registrars ...RouteRegistrar) *APIServer {
	return &APIServer{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		routeRegistrars:     registrars,
		metrics:             newMetrics(reg, listenAddr, rqm),
		cors: middleware.CORSConfig{
			AllowedOrigins:   env.GetList(env.AllowedOrigins, defaultAllowedOrigins),
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "OPTIONS", "DELETE"},
			AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
		},
	}
}

// Routes builds the instrumented mux with every registrar plus /metrics.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.listenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped", "addr", s.listenAddr)
	return nil
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"support-chat-backend/internal/api/middleware"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError logs err with its internal cause and writes the {code, message} body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := FromError(err)

	level := slog.LevelWarn
	if httpErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", httpErr.StatusCode,
		"code", httpErr.Code,
		"error", httpErr.ErrorLog,
	)

	_ = WriteJSON(w, httpErr.StatusCode, ApiError{Code: httpErr.Code, Message: httpErr.Message})
}

// MakeHTTPHandleFunc runs f on the request queue behind CORS, logging and the
// optional auth middlewares, and renders any returned error.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, authMiddleware ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		err := s.requestQueueManager.Submit(r.Context(), func() error {
			return f(w, r)
		})
		if err != nil {
			WriteError(w, r, err)
		}
	}

	middlewares := []middleware.Middleware{
		middleware.CORS(s.cors),
		middleware.Logging(),
	}

	finalHandler := middleware.Chain(baseHandler, authMiddleware...)

	return middleware.Chain(finalHandler, middlewares...)
}

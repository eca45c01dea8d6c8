package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/websocket"
)

type HTTPError = api.HTTPError

const maxBodyBytes = 1 << 20

type ApiMessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}

func MethodHandler(
	w http.ResponseWriter,
	r *http.Request,
	allowed map[string]func(http.ResponseWriter, *http.Request) error,
) error {
	if handler, ok := allowed[r.Method]; ok {
		return handler(w, r)
	}
	return &HTTPError{
		StatusCode: http.StatusMethodNotAllowed,
		Code:       apperror.CodeBadRequest,
		Message:    "Method not allowed.",
		ErrorLog:   fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Code:       apperror.CodeBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode %T: %w", v, err),
		}
	}
	return nil
}

// operator returns the identity attached by the JWT middleware.
func operator(r *http.Request) (identity.Operator, error) {
	op, ok := identity.FromContext(r.Context())
	if !ok {
		return identity.Operator{}, apperror.Unauthorized("Identity not found")
	}
	return op, nil
}

func pathValue(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		return "", apperror.BadRequest(fmt.Sprintf("Missing %s", name))
	}
	return value, nil
}

// pageParams reads numItems and cursor; a missing or malformed numItems leaves the service default.
func pageParams(r *http.Request) (int, string) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("numItems"))
	if err != nil {
		limit = 0
	}
	return limit, q.Get("cursor")
}

// publish is best effort: the mutation already committed, so a failed fan-out is only logged.
func publish(ctx context.Context, publisher websocket.Publisher, event websocket.Event, rooms ...string) {
	if publisher == nil {
		return
	}
	for _, room := range rooms {
		if err := publisher.Publish(ctx, room, event); err != nil {
			slog.WarnContext(ctx, "realtime publish failed", "room", room, "type", event.Type, "error", err)
		}
	}
}

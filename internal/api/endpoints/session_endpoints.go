package endpoints

import (
	"context"
	"net/http"

	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/model"
	sessionsvc "support-chat-backend/internal/service/session"
)

type SessionService interface {
	Create(ctx context.Context, params sessionsvc.CreateParams) (model.ContactSessionItem, error)
	Validate(ctx context.Context, contactSessionID string) sessionsvc.Validation
	Refresh(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error)
}

type SessionEndpoints interface {
	Create(http.ResponseWriter, *http.Request) error
	Validate(http.ResponseWriter, *http.Request) error
	Refresh(http.ResponseWriter, *http.Request) error
}

type sessionEndpoints struct {
	service SessionService
}

func NewSessionEndpoints(service SessionService) SessionEndpoints {
	return &sessionEndpoints{service: service}
}

func (h *sessionEndpoints) Create(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleCreate,
	})
}

func (h *sessionEndpoints) Validate(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleValidate,
	})
}

func (h *sessionEndpoints) Refresh(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRefresh,
	})
}

func (h *sessionEndpoints) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req dto.CreateContactSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = &model.SessionMetadata{}
	}
	if metadata.UserAgent == "" {
		metadata.UserAgent = r.UserAgent()
	}

	session, err := h.service.Create(r.Context(), sessionsvc.CreateParams{
		Name:           req.Name,
		Email:          req.Email,
		OrganizationID: req.OrganizationID,
		Metadata:       metadata,
	})
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusCreated, toContactSessionResponse(session))
}

// handleValidate always answers 200; an unusable session is reported in the body.
func (h *sessionEndpoints) handleValidate(w http.ResponseWriter, r *http.Request) error {
	var req dto.ContactSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	validation := h.service.Validate(r.Context(), req.ContactSessionID)
	resp := dto.ValidateContactSessionResponse{Valid: validation.Valid, Reason: validation.Reason}
	if validation.Session != nil {
		session := toContactSessionResponse(*validation.Session)
		resp.ContactSession = &session
	}

	return WriteJSON(w, http.StatusOK, resp)
}

func (h *sessionEndpoints) handleRefresh(w http.ResponseWriter, r *http.Request) error {
	var req dto.ContactSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	session, err := h.service.Refresh(r.Context(), req.ContactSessionID)
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toContactSessionResponse(session))
}

package endpoints

import (
	"context"
	"net/http"

	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
	voicesvc "support-chat-backend/internal/service/voice"
	"support-chat-backend/internal/service/voice/vapi"
)

type VoiceService interface {
	GetPublicKey(ctx context.Context, organizationID string) (*voicesvc.PublicKey, error)
	UpsertCredentials(ctx context.Context, op identity.Operator, creds voicesvc.Credentials) (model.PluginItem, error)
	GetPlugin(ctx context.Context, op identity.Operator) (*model.PluginItem, error)
	RemovePlugin(ctx context.Context, op identity.Operator) error
	ListPhoneNumbers(ctx context.Context, op identity.Operator) ([]vapi.PhoneNumber, error)
	ListAssistants(ctx context.Context, op identity.Operator) ([]vapi.Assistant, error)
}

type VoiceEndpoints interface {
	PublicKey(http.ResponseWriter, *http.Request) error
	Plugin(http.ResponseWriter, *http.Request) error
	Credentials(http.ResponseWriter, *http.Request) error
	PhoneNumbers(http.ResponseWriter, *http.Request) error
	Assistants(http.ResponseWriter, *http.Request) error
}

type voiceEndpoints struct {
	service VoiceService
}

func NewVoiceEndpoints(service VoiceService) VoiceEndpoints {
	return &voiceEndpoints{service: service}
}

func (h *voiceEndpoints) PublicKey(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handlePublicKey,
	})
}

func (h *voiceEndpoints) Plugin(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:    h.handleGetPlugin,
		http.MethodDelete: h.handleRemovePlugin,
	})
}

func (h *voiceEndpoints) Credentials(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPut: h.handleUpsertCredentials,
	})
}

func (h *voiceEndpoints) PhoneNumbers(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handlePhoneNumbers,
	})
}

func (h *voiceEndpoints) Assistants(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleAssistants,
	})
}

// handlePublicKey writes JSON null when the organization has no voice plugin.
func (h *voiceEndpoints) handlePublicKey(w http.ResponseWriter, r *http.Request) error {
	organizationID, err := pathValue(r, "organizationId")
	if err != nil {
		return err
	}

	key, err := h.service.GetPublicKey(r.Context(), organizationID)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, key)
}

func (h *voiceEndpoints) handleGetPlugin(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	plugin, err := h.service.GetPlugin(r.Context(), op)
	if err != nil {
		return err
	}
	if plugin == nil {
		return WriteJSON(w, http.StatusOK, nil)
	}
	return WriteJSON(w, http.StatusOK, toPluginResponse(*plugin))
}

func (h *voiceEndpoints) handleRemovePlugin(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	if err := h.service.RemovePlugin(r.Context(), op); err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Plugin removed"})
}

func (h *voiceEndpoints) handleUpsertCredentials(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	var req dto.VoiceCredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	plugin, err := h.service.UpsertCredentials(r.Context(), op, voicesvc.Credentials{
		PublicAPIKey:  req.PublicAPIKey,
		PrivateAPIKey: req.PrivateAPIKey,
	})
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toPluginResponse(plugin))
}

func (h *voiceEndpoints) handlePhoneNumbers(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	numbers, err := h.service.ListPhoneNumbers(r.Context(), op)
	if err != nil {
		return err
	}
	if numbers == nil {
		numbers = []vapi.PhoneNumber{}
	}
	return WriteJSON(w, http.StatusOK, numbers)
}

func (h *voiceEndpoints) handleAssistants(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	assistants, err := h.service.ListAssistants(r.Context(), op)
	if err != nil {
		return err
	}
	if assistants == nil {
		assistants = []vapi.Assistant{}
	}
	return WriteJSON(w, http.StatusOK, assistants)
}

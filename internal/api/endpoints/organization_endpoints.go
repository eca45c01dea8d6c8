package endpoints

import (
	"context"
	"net/http"

	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
	organizationsvc "support-chat-backend/internal/service/organization"
)

type OrganizationService interface {
	ValidateOrganization(ctx context.Context, organizationID string) (organizationsvc.Validation, error)
	GetWidgetSettings(ctx context.Context, organizationID string) (*model.WidgetSettingsItem, error)
	GetOwnWidgetSettings(ctx context.Context, op identity.Operator) (*model.WidgetSettingsItem, error)
	UpsertWidgetSettings(ctx context.Context, op identity.Operator, input organizationsvc.WidgetSettingsInput) (model.WidgetSettingsItem, error)
	GetOwnSubscription(ctx context.Context, op identity.Operator) (*model.SubscriptionItem, error)
}

type OrganizationEndpoints interface {
	Validate(http.ResponseWriter, *http.Request) error
	PublicWidgetSettings(http.ResponseWriter, *http.Request) error
	WidgetSettings(http.ResponseWriter, *http.Request) error
	Subscription(http.ResponseWriter, *http.Request) error
}

type organizationEndpoints struct {
	service OrganizationService
}

func NewOrganizationEndpoints(service OrganizationService) OrganizationEndpoints {
	return &organizationEndpoints{service: service}
}

func (h *organizationEndpoints) Validate(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleValidate,
	})
}

func (h *organizationEndpoints) PublicWidgetSettings(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handlePublicWidgetSettings,
	})
}

func (h *organizationEndpoints) WidgetSettings(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetWidgetSettings,
		http.MethodPut: h.handleUpsertWidgetSettings,
	})
}

func (h *organizationEndpoints) Subscription(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleSubscription,
	})
}

func (h *organizationEndpoints) handleValidate(w http.ResponseWriter, r *http.Request) error {
	result, err := h.service.ValidateOrganization(r.Context(), r.PathValue("organizationId"))
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, dto.ValidateOrganizationResponse{Valid: result.Valid, Reason: result.Reason})
}

// handlePublicWidgetSettings writes JSON null when the organization has not saved settings.
func (h *organizationEndpoints) handlePublicWidgetSettings(w http.ResponseWriter, r *http.Request) error {
	organizationID, err := pathValue(r, "organizationId")
	if err != nil {
		return err
	}

	settings, err := h.service.GetWidgetSettings(r.Context(), organizationID)
	if err != nil {
		return err
	}
	return writeWidgetSettings(w, settings)
}

func (h *organizationEndpoints) handleGetWidgetSettings(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	settings, err := h.service.GetOwnWidgetSettings(r.Context(), op)
	if err != nil {
		return err
	}
	return writeWidgetSettings(w, settings)
}

func (h *organizationEndpoints) handleUpsertWidgetSettings(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	var req dto.WidgetSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	settings, err := h.service.UpsertWidgetSettings(r.Context(), op, organizationsvc.WidgetSettingsInput{
		GreetMessage:       req.GreetMessage,
		DefaultSuggestions: req.DefaultSuggestions,
		VapiSettings:       req.VapiSettings,
	})
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toWidgetSettingsResponse(settings))
}

func (h *organizationEndpoints) handleSubscription(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	sub, err := h.service.GetOwnSubscription(r.Context(), op)
	if err != nil {
		return err
	}
	if sub == nil {
		return WriteJSON(w, http.StatusOK, nil)
	}
	return WriteJSON(w, http.StatusOK, dto.SubscriptionResponse{
		OrganizationID: sub.OrganizationID,
		Status:         sub.Status,
		UpdatedAt:      sub.UpdatedAt,
	})
}

func writeWidgetSettings(w http.ResponseWriter, settings *model.WidgetSettingsItem) error {
	if settings == nil {
		return WriteJSON(w, http.StatusOK, nil)
	}
	return WriteJSON(w, http.StatusOK, toWidgetSettingsResponse(*settings))
}

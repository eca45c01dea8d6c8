package organization

import (
	"context"
	"errors"
	"strings"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
)

const maxGreetMessageLength = 1000

// vapiNone is what the dashboard's selects submit when nothing is picked.
const vapiNone = "none"

type WidgetSettingsInput struct {
	GreetMessage       string
	DefaultSuggestions model.DefaultSuggestions
	VapiSettings       model.VapiSettings
}

func normalizeWidgetSettings(input WidgetSettingsInput) (model.WidgetSettingsItem, error) {
	greet := strings.TrimSpace(input.GreetMessage)
	if greet == "" {
		return model.WidgetSettingsItem{}, apperror.BadRequest("Greeting message is required")
	}
	if len(greet) > maxGreetMessageLength {
		return model.WidgetSettingsItem{}, apperror.BadRequest("Greeting message is too long")
	}

	return model.WidgetSettingsItem{
		GreetMessage: greet,
		DefaultSuggestions: model.DefaultSuggestions{
			Suggestion1: strings.TrimSpace(input.DefaultSuggestions.Suggestion1),
			Suggestion2: strings.TrimSpace(input.DefaultSuggestions.Suggestion2),
			Suggestion3: strings.TrimSpace(input.DefaultSuggestions.Suggestion3),
		},
		VapiSettings: model.VapiSettings{
			AssistantID: normalizeVapiField(input.VapiSettings.AssistantID),
			PhoneNumber: normalizeVapiField(input.VapiSettings.PhoneNumber),
		},
	}, nil
}

func normalizeVapiField(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, vapiNone) {
		return ""
	}
	return value
}

// GetWidgetSettings is the public lookup used by the widget; nil means not configured.
func (s *Service) GetWidgetSettings(ctx context.Context, organizationID string) (*model.WidgetSettingsItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, apperror.BadRequest("Missing organization ID")
	}

	settings, err := s.repo.GetWidgetSettings(ctx, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to load widget settings", err)
	}
	return &settings, nil
}

func (s *Service) GetOwnWidgetSettings(ctx context.Context, op identity.Operator) (*model.WidgetSettingsItem, error) {
	if err := op.Require(); err != nil {
		return nil, err
	}
	return s.GetWidgetSettings(ctx, op.OrganizationID)
}

func (s *Service) UpsertWidgetSettings(ctx context.Context, op identity.Operator, input WidgetSettingsInput) (model.WidgetSettingsItem, error) {
	if err := op.Require(); err != nil {
		return model.WidgetSettingsItem{}, err
	}

	settings, err := normalizeWidgetSettings(input)
	if err != nil {
		return model.WidgetSettingsItem{}, err
	}
	settings.OrganizationID = op.OrganizationID
	settings.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.PutWidgetSettings(ctx, settings); err != nil {
		return model.WidgetSettingsItem{}, apperror.Internal("failed to save widget settings", err)
	}
	return settings, nil
}

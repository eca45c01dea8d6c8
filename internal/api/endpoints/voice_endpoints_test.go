package endpoints

import (
	"context"
	"net/http"
	"testing"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/middleware"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
	voicesvc "support-chat-backend/internal/service/voice"
	"support-chat-backend/internal/service/voice/vapi"
)

type fakeVoiceService struct {
	credentials *voicesvc.Credentials
}

func (f *fakeVoiceService) GetPublicKey(ctx context.Context, organizationID string) (*voicesvc.PublicKey, error) {
	if f.credentials == nil || organizationID != testOrganizationID {
		return nil, nil
	}
	return &voicesvc.PublicKey{PublicAPIKey: f.credentials.PublicAPIKey}, nil
}

func (f *fakeVoiceService) UpsertCredentials(ctx context.Context, op identity.Operator, creds voicesvc.Credentials) (model.PluginItem, error) {
	if creds.PrivateAPIKey == "" || creds.PublicAPIKey == "" {
		return model.PluginItem{}, apperror.BadRequest("Missing credentials")
	}
	f.credentials = &creds
	return f.plugin(op), nil
}

func (f *fakeVoiceService) plugin(op identity.Operator) model.PluginItem {
	return model.PluginItem{OrganizationID: op.OrganizationID, Service: model.PluginServiceVapi, SecretName: "tenant/" + op.OrganizationID + "/vapi"}
}

func (f *fakeVoiceService) GetPlugin(ctx context.Context, op identity.Operator) (*model.PluginItem, error) {
	if f.credentials == nil {
		return nil, nil
	}
	plugin := f.plugin(op)
	return &plugin, nil
}

func (f *fakeVoiceService) RemovePlugin(ctx context.Context, op identity.Operator) error {
	if f.credentials == nil {
		return apperror.NotFound("Plugin not found")
	}
	f.credentials = nil
	return nil
}

func (f *fakeVoiceService) ListPhoneNumbers(ctx context.Context, op identity.Operator) ([]vapi.PhoneNumber, error) {
	if f.credentials == nil {
		return nil, apperror.NotFound("Plugin not found")
	}
	return nil, nil
}

func (f *fakeVoiceService) ListAssistants(ctx context.Context, op identity.Operator) ([]vapi.Assistant, error) {
	if f.credentials == nil {
		return nil, apperror.NotFound("Plugin not found")
	}
	return []vapi.Assistant{{ID: "asst-1", Name: "Front desk"}}, nil
}

func setupVoiceHandler(t *testing.T, service *fakeVoiceService) http.Handler {
	t.Helper()
	setupTestJWT(t)
	server := newTestAPIServer(t)
	h := NewVoiceEndpoints(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/{organizationId}/voice-secrets", server.MakeHTTPHandleFunc(h.PublicKey))
	mux.HandleFunc("/plugins/vapi", server.MakeHTTPHandleFunc(h.Plugin, middleware.ValidateUserJWT))
	mux.HandleFunc("/plugins/vapi/credentials", server.MakeHTTPHandleFunc(h.Credentials, middleware.ValidateUserJWT))
	mux.HandleFunc("/voice/phone-numbers", server.MakeHTTPHandleFunc(h.PhoneNumbers, middleware.ValidateUserJWT))
	mux.HandleFunc("/voice/assistants", server.MakeHTTPHandleFunc(h.Assistants, middleware.ValidateUserJWT))
	return mux
}

func TestVoicePluginLifecycle(t *testing.T) {
	service := &fakeVoiceService{}
	handler := setupVoiceHandler(t, service)
	headers := bearer(operatorToken(t, testOrganizationID))

	key := doJSONRequest[*voicesvc.PublicKey](t, handler, http.MethodGet, "/organizations/org-1/voice-secrets", nil, nil, http.StatusOK)
	if key != nil {
		t.Fatalf("expected null key before connecting, got %#v", key)
	}

	plugin := doJSONRequest[dto.PluginResponse](t, handler, http.MethodPut, "/plugins/vapi/credentials", map[string]interface{}{
		"publicApiKey":  "pub-123",
		"privateApiKey": "priv-456",
	}, headers, http.StatusOK)
	if plugin.Service != model.PluginServiceVapi || plugin.OrganizationID != testOrganizationID {
		t.Fatalf("unexpected plugin: %#v", plugin)
	}

	key = doJSONRequest[*voicesvc.PublicKey](t, handler, http.MethodGet, "/organizations/org-1/voice-secrets", nil, nil, http.StatusOK)
	if key == nil || key.PublicAPIKey != "pub-123" {
		t.Fatalf("expected public key, got %#v", key)
	}

	numbers := doJSONRequest[[]vapi.PhoneNumber](t, handler, http.MethodGet, "/voice/phone-numbers", nil, headers, http.StatusOK)
	if numbers == nil || len(numbers) != 0 {
		t.Fatalf("expected empty list, got %#v", numbers)
	}

	assistants := doJSONRequest[[]vapi.Assistant](t, handler, http.MethodGet, "/voice/assistants", nil, headers, http.StatusOK)
	if len(assistants) != 1 || assistants[0].ID != "asst-1" {
		t.Fatalf("unexpected assistants: %#v", assistants)
	}

	doJSONRequest[ApiMessageResponse](t, handler, http.MethodDelete, "/plugins/vapi", nil, headers, http.StatusOK)

	gone := doJSONRequest[*dto.PluginResponse](t, handler, http.MethodGet, "/plugins/vapi", nil, headers, http.StatusOK)
	if gone != nil {
		t.Fatalf("expected null plugin after removal, got %#v", gone)
	}
	doJSONRequest[api.ApiError](t, handler, http.MethodGet, "/voice/assistants", nil, headers, http.StatusNotFound)
}

func TestVoiceCredentialsValidation(t *testing.T) {
	handler := setupVoiceHandler(t, &fakeVoiceService{})

	doJSONRequest[api.ApiError](t, handler, http.MethodPut, "/plugins/vapi/credentials", map[string]interface{}{
		"publicApiKey": "pub-only",
	}, bearer(operatorToken(t, testOrganizationID)), http.StatusBadRequest)

	doJSONRequest[api.ApiError](t, handler, http.MethodPut, "/plugins/vapi/credentials", map[string]interface{}{
		"publicApiKey":  "pub",
		"privateApiKey": "priv",
	}, nil, http.StatusUnauthorized)
}

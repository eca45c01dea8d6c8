package router

import (
	"net/http"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
	"support-chat-backend/internal/api/middleware"
)

func OrganizationPublicRoutes(prefix string, service endpoints.OrganizationService, voice endpoints.VoiceService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		orgEndpoints := endpoints.NewOrganizationEndpoints(service)
		voiceEndpoints := endpoints.NewVoiceEndpoints(voice)

		mux.HandleFunc(prefix+"/organizations/{organizationId}/validate", s.MakeHTTPHandleFunc(orgEndpoints.Validate))
		mux.HandleFunc(prefix+"/organizations/{organizationId}/widget-settings", s.MakeHTTPHandleFunc(orgEndpoints.PublicWidgetSettings))
		mux.HandleFunc(prefix+"/organizations/{organizationId}/voice-secrets", s.MakeHTTPHandleFunc(voiceEndpoints.PublicKey))
	}
}

func OrganizationClientRoutes(prefix string, service endpoints.OrganizationService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		orgEndpoints := endpoints.NewOrganizationEndpoints(service)

		mux.HandleFunc(prefix+"/widget-settings", s.MakeHTTPHandleFunc(orgEndpoints.WidgetSettings, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/subscription", s.MakeHTTPHandleFunc(orgEndpoints.Subscription, middleware.ValidateUserJWT))
	}
}

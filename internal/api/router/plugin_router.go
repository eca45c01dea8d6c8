package router

import (
	"net/http"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
	"support-chat-backend/internal/api/middleware"
)

func VoiceRoutes(prefix string, service endpoints.VoiceService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		voiceEndpoints := endpoints.NewVoiceEndpoints(service)

		mux.HandleFunc(prefix+"/plugins/vapi", s.MakeHTTPHandleFunc(voiceEndpoints.Plugin, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/plugins/vapi/credentials", s.MakeHTTPHandleFunc(voiceEndpoints.Credentials, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/voice/phone-numbers", s.MakeHTTPHandleFunc(voiceEndpoints.PhoneNumbers, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/voice/assistants", s.MakeHTTPHandleFunc(voiceEndpoints.Assistants, middleware.ValidateUserJWT))
	}
}

func KnowledgeRoutes(prefix string, service endpoints.KnowledgeService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		knowledgeEndpoints := endpoints.NewKnowledgeEndpoints(service)

		mux.HandleFunc(prefix+"/knowledge", s.MakeHTTPHandleFunc(knowledgeEndpoints.Entries, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/knowledge/{entryId}", s.MakeHTTPHandleFunc(knowledgeEndpoints.Entry, middleware.ValidateUserJWT))
	}
}

package router

import (
	"net/http"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
)

func SessionRoutes(prefix string, service endpoints.SessionService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		sessionEndpoints := endpoints.NewSessionEndpoints(service)
		mux.HandleFunc(prefix+"/contact-sessions", s.MakeHTTPHandleFunc(sessionEndpoints.Create))
		mux.HandleFunc(prefix+"/contact-sessions/validate", s.MakeHTTPHandleFunc(sessionEndpoints.Validate))
		mux.HandleFunc(prefix+"/contact-sessions/refresh", s.MakeHTTPHandleFunc(sessionEndpoints.Refresh))
	}
}

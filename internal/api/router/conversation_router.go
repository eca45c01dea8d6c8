package router

import (
	"net/http"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
	"support-chat-backend/internal/api/middleware"
	"support-chat-backend/internal/websocket"
)

func ConversationPublicRoutes(prefix string, service endpoints.ConversationService, publisher websocket.Publisher) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		convEndpoints := endpoints.NewConversationEndpoints(service, publisher, nil)

		mux.HandleFunc(prefix+"/conversations", s.MakeHTTPHandleFunc(convEndpoints.PublicConversations))
		mux.HandleFunc(prefix+"/conversations/{conversationId}", s.MakeHTTPHandleFunc(convEndpoints.PublicConversation))
		mux.HandleFunc(prefix+"/threads/{threadId}/messages", s.MakeHTTPHandleFunc(convEndpoints.ThreadMessages))
	}
}

func ConversationClientRoutes(prefix string, service endpoints.ConversationService, publisher websocket.Publisher) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		convEndpoints := endpoints.NewConversationEndpoints(service, publisher, nil)

		mux.HandleFunc(prefix+"/conversations", s.MakeHTTPHandleFunc(convEndpoints.Conversations, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/conversations/{conversationId}", s.MakeHTTPHandleFunc(convEndpoints.Conversation, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/conversations/{conversationId}/status", s.MakeHTTPHandleFunc(convEndpoints.ConversationStatus, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/conversations/{conversationId}/messages", s.MakeHTTPHandleFunc(convEndpoints.ConversationMessages, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/messages/enhance", s.MakeHTTPHandleFunc(convEndpoints.Enhance, middleware.ValidateUserJWT))
	}
}

// ConversationWebsocketRoutes authorize in the handler: browsers cannot set headers on a websocket upgrade.
func ConversationWebsocketRoutes(prefix string, service endpoints.ConversationService, rooms endpoints.RoomJoiner) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		convEndpoints := endpoints.NewConversationEndpoints(service, nil, rooms)

		mux.HandleFunc(prefix+"/conversations/{conversationId}", s.MakeHTTPHandleFunc(convEndpoints.Websocket))
		mux.HandleFunc(prefix+"/notifications", s.MakeHTTPHandleFunc(convEndpoints.NotificationsWebsocket))
	}
}

package router

import (
	"net/http"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/endpoints"
)

// BillingRoutes registers the webhook; a nil service answers 503 until a signing secret is configured.
func BillingRoutes(prefix string, service endpoints.BillingService) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		billingEndpoints := endpoints.NewBillingEndpoints(service)
		mux.HandleFunc(prefix+"/webhooks/billing", s.MakeHTTPHandleFunc(billingEndpoints.Webhook))
	}
}

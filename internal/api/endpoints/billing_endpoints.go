package endpoints

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
	billingsvc "support-chat-backend/internal/service/billing"
)

type BillingService interface {
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (billingsvc.Result, error)
}

type BillingEndpoints interface {
	Webhook(http.ResponseWriter, *http.Request) error
}

type billingEndpoints struct {
	service BillingService
}

func NewBillingEndpoints(service BillingService) BillingEndpoints {
	return &billingEndpoints{service: service}
}

func (h *billingEndpoints) Webhook(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleWebhook,
	})
}

// handleWebhook passes the raw body through untouched; the signature covers its exact bytes.
func (h *billingEndpoints) handleWebhook(w http.ResponseWriter, r *http.Request) error {
	if h.service == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Code:       apperror.CodeInternal,
			Message:    "Billing webhook not configured",
		}
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Code:       apperror.CodeBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("read webhook body: %w", err),
		}
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, dto.BillingWebhookResponse{EventType: result.EventType, Handled: result.Handled})
}

package billing

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/model"

	svix "github.com/svix/svix-webhooks/go"
)

const EventSubscriptionUpdated = "subscription.updated"

type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

type SubscriptionUpdater interface {
	UpsertSubscription(ctx context.Context, organizationID, status string) (model.SubscriptionItem, error)
}

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type subscriptionData struct {
	Status string `json:"status"`
	Payer  *struct {
		OrganizationID string `json:"organization_id"`
	} `json:"payer"`
}

// Result reports what a delivered event did. Ignored events are not errors.
type Result struct {
	EventType    string
	Handled      bool
	Subscription *model.SubscriptionItem
}

type Service struct {
	verifier      Verifier
	subscriptions SubscriptionUpdater
}

// New verifies deliveries with the svix signing secret ("whsec_...").
func New(secret string, subscriptions SubscriptionUpdater) (*Service, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return NewWithVerifier(wh, subscriptions), nil
}

func NewWithVerifier(verifier Verifier, subscriptions SubscriptionUpdater) *Service {
	return &Service{verifier: verifier, subscriptions: subscriptions}
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (Result, error) {
	if err := s.verifier.Verify(payload, headers); err != nil {
		slog.WarnContext(ctx, "billing webhook rejected", "svix_id", headers.Get("svix-id"), "error", err)
		return Result{}, apperror.BadRequest("Invalid webhook signature")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Result{}, apperror.BadRequest("Invalid webhook payload")
	}

	switch event.Type {
	case EventSubscriptionUpdated:
		var data subscriptionData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return Result{}, apperror.BadRequest("Invalid subscription payload")
		}
		if data.Payer == nil || strings.TrimSpace(data.Payer.OrganizationID) == "" {
			return Result{}, apperror.BadRequest("Missing Organization")
		}

		sub, err := s.subscriptions.UpsertSubscription(ctx, data.Payer.OrganizationID, data.Status)
		if err != nil {
			return Result{}, err
		}
		slog.InfoContext(ctx, "subscription updated", "organizationId", sub.OrganizationID, "status", sub.Status)
		return Result{EventType: event.Type, Handled: true, Subscription: &sub}, nil
	default:
		slog.InfoContext(ctx, "ignored billing webhook event", "type", event.Type)
		return Result{EventType: event.Type}, nil
	}
}

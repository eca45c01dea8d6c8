package organization

import (
	"context"
	"errors"
	"strings"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
)

// Seat limits applied when the subscription status changes.
const (
	ProMaxMemberships  = 5
	FreeMaxMemberships = 1
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

type Validation struct {
	Valid  bool
	Reason string
}

// ValidateOrganization never fails for an unknown organization; it reports it as invalid.
func (s *Service) ValidateOrganization(ctx context.Context, organizationID string) (Validation, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return Validation{Valid: false, Reason: "Organization ID is required"}, nil
	}

	if _, err := s.repo.GetOrganization(ctx, organizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Validation{Valid: false, Reason: "Organization not valid"}, nil
		}
		return Validation{}, apperror.Internal("failed to load organization", err)
	}
	return Validation{Valid: true}, nil
}

// GetSubscription returns nil when the organization never had a billing event.
func (s *Service) GetSubscription(ctx context.Context, organizationID string) (*model.SubscriptionItem, error) {
	sub, err := s.repo.GetSubscription(ctx, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to load subscription", err)
	}
	return &sub, nil
}

func (s *Service) GetOwnSubscription(ctx context.Context, op identity.Operator) (*model.SubscriptionItem, error) {
	if err := op.Require(); err != nil {
		return nil, err
	}
	return s.GetSubscription(ctx, op.OrganizationID)
}

// UpsertSubscription records the billing status and resizes the organization's seat limit.
func (s *Service) UpsertSubscription(ctx context.Context, organizationID, status string) (model.SubscriptionItem, error) {
	organizationID = strings.TrimSpace(organizationID)
	status = strings.TrimSpace(status)
	if organizationID == "" {
		return model.SubscriptionItem{}, apperror.BadRequest("Missing organization ID")
	}
	if status == "" {
		return model.SubscriptionItem{}, apperror.BadRequest("Missing subscription status")
	}

	seats := FreeMaxMemberships
	if status == model.SubscriptionStatusActive {
		seats = ProMaxMemberships
	}

	if err := s.repo.UpdateMaxMemberships(ctx, organizationID, seats); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.SubscriptionItem{}, apperror.NotFound("Organization not found")
		}
		return model.SubscriptionItem{}, apperror.Internal("failed to update seat limit", err)
	}

	sub := model.SubscriptionItem{
		OrganizationID: organizationID,
		Status:         status,
		UpdatedAt:      s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.PutSubscription(ctx, sub); err != nil {
		return model.SubscriptionItem{}, apperror.Internal("failed to save subscription", err)
	}
	return sub, nil
}

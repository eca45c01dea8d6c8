package session

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"
	"support-chat-backend/internal/service/organization"

	"github.com/google/uuid"
)

const (
	DefaultDuration         = 24 * time.Hour
	DefaultRefreshThreshold = 4 * time.Hour
	maxNameLength           = 100
)

type OrganizationValidator interface {
	ValidateOrganization(ctx context.Context, organizationID string) (organization.Validation, error)
}

type Config struct {
	Duration         time.Duration
	RefreshThreshold time.Duration
}

type Service struct {
	repo          Repository
	organizations OrganizationValidator
	cfg           Config
	now           func() time.Time
}

func New(db *database.Database, organizations OrganizationValidator, cfg Config) *Service {
	return NewWithRepository(NewDynamoRepository(db), organizations, cfg, time.Now)
}

func NewWithRepository(repo Repository, organizations OrganizationValidator, cfg Config, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	// A refresh must always move the expiry forward, so the window has to fit inside Duration.
	if cfg.RefreshThreshold >= cfg.Duration {
		clamped := cfg.Duration / 2
		slog.Warn("session refresh threshold clamped", "duration", cfg.Duration, "threshold", cfg.RefreshThreshold, "clamped", clamped)
		cfg.RefreshThreshold = clamped
	}
	return &Service{
		repo:          repo,
		organizations: organizations,
		cfg:           cfg,
		now:           now,
	}
}

type CreateParams struct {
	Name           string
	Email          string
	OrganizationID string
	Metadata       *model.SessionMetadata
}

type Validation struct {
	Valid   bool
	Reason  string
	Session *model.ContactSessionItem
}

// IsValid reports whether the session is still usable at now. Equality counts as expired.
func IsValid(session model.ContactSessionItem, now time.Time) bool {
	return now.UnixMilli() < session.ExpiresAt
}

func (s *Service) Create(ctx context.Context, params CreateParams) (model.ContactSessionItem, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	organizationID := strings.TrimSpace(params.OrganizationID)

	if name == "" {
		return model.ContactSessionItem{}, apperror.BadRequest("Name is required")
	}
	if len(name) > maxNameLength {
		return model.ContactSessionItem{}, apperror.BadRequest("Name is too long")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.ContactSessionItem{}, apperror.BadRequest("Invalid email address")
	}
	if organizationID == "" {
		return model.ContactSessionItem{}, apperror.BadRequest("Missing organization ID")
	}

	if s.organizations != nil {
		validation, err := s.organizations.ValidateOrganization(ctx, organizationID)
		if err != nil {
			return model.ContactSessionItem{}, err
		}
		if !validation.Valid {
			return model.ContactSessionItem{}, apperror.BadRequest("Invalid organization")
		}
	}

	now := s.now().UTC()
	session := model.ContactSessionItem{
		ContactSessionID: uuid.NewString(),
		OrganizationID:   organizationID,
		Name:             name,
		Email:            email,
		Metadata:         params.Metadata,
		CreatedAt:        now.Format(time.RFC3339),
		ExpiresAt:        now.Add(s.cfg.Duration).UnixMilli(),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return model.ContactSessionItem{}, apperror.Internal("failed to create contact session", err)
	}
	return session, nil
}

// Validate fails closed: a missing, unknown or expired session, or a storage failure,
// yields an invalid result rather than an error.
func (s *Service) Validate(ctx context.Context, contactSessionID string) Validation {
	contactSessionID = strings.TrimSpace(contactSessionID)
	if contactSessionID == "" {
		return Validation{Valid: false, Reason: "Contact session ID is required"}
	}

	session, err := s.repo.GetSession(ctx, contactSessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "contact session validation failed", "contactSessionId", contactSessionID, "error", err)
		}
		return Validation{Valid: false, Reason: "Contact session not found"}
	}

	if !IsValid(session, s.now()) {
		return Validation{Valid: false, Reason: "Contact session expired"}
	}
	return Validation{Valid: true, Session: &session}
}

// Require returns the session behind contactSessionID or UNAUTHORIZED.
func (s *Service) Require(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error) {
	contactSessionID = strings.TrimSpace(contactSessionID)
	if contactSessionID == "" {
		return model.ContactSessionItem{}, apperror.Unauthorized("Invalid session")
	}

	session, err := s.repo.GetSession(ctx, contactSessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ContactSessionItem{}, apperror.Unauthorized("Invalid session")
		}
		return model.ContactSessionItem{}, apperror.Internal("failed to load contact session", err)
	}
	if !IsValid(session, s.now()) {
		return model.ContactSessionItem{}, apperror.Unauthorized("Invalid session")
	}
	return session, nil
}

// Get loads a session regardless of expiry, for operator views.
func (s *Service) Get(ctx context.Context, contactSessionID string) (*model.ContactSessionItem, error) {
	session, err := s.repo.GetSession(ctx, contactSessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to load contact session", err)
	}
	return &session, nil
}

// Refresh extends the expiry to now+Duration when less than RefreshThreshold remains.
// It fails with NOT_FOUND for unknown sessions and UNAUTHORIZED for expired ones.
func (s *Service) Refresh(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error) {
	contactSessionID = strings.TrimSpace(contactSessionID)
	if contactSessionID == "" {
		return model.ContactSessionItem{}, apperror.BadRequest("Missing contact session ID")
	}

	session, err := s.repo.GetSession(ctx, contactSessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ContactSessionItem{}, apperror.NotFound("Contact session not found")
		}
		return model.ContactSessionItem{}, apperror.Internal("failed to load contact session", err)
	}

	now := s.now()
	if !IsValid(session, now) {
		return model.ContactSessionItem{}, apperror.Unauthorized("Contact session expired")
	}

	remaining := session.ExpiresAt - now.UnixMilli()
	if remaining >= s.cfg.RefreshThreshold.Milliseconds() {
		return session, nil
	}

	updated, err := s.repo.ExtendExpiry(ctx, contactSessionID, now.Add(s.cfg.Duration).UnixMilli())
	if err != nil {
		if errors.Is(err, ErrNotExtended) {
			return s.reload(ctx, contactSessionID)
		}
		return model.ContactSessionItem{}, apperror.Internal("failed to refresh contact session", err)
	}
	return updated, nil
}

func (s *Service) reload(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error) {
	session, err := s.repo.GetSession(ctx, contactSessionID)
	if err != nil {
		return model.ContactSessionItem{}, apperror.Internal("failed to reload contact session", err)
	}
	return session, nil
}

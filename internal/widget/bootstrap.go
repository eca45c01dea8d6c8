package widget

import (
	"context"
	"log/slog"
	"strings"

	"support-chat-backend/internal/dto"
)

const (
	msgOrganizationRequired = "Organization ID is required!"
	msgInvalidConfiguration = "Invalid configuration!"
	msgUnableToVerify       = "Unable to verify!"
	msgSettingsUnavailable  = "Unable to load widget settings!"
)

// Backend is the part of the public API the bootstrap sequence talks to.
type Backend interface {
	ValidateOrganization(ctx context.Context, organizationID string) (dto.ValidateOrganizationResponse, error)
	ValidateContactSession(ctx context.Context, contactSessionID string) (dto.ValidateContactSessionResponse, error)
	GetWidgetSettings(ctx context.Context, organizationID string) (*dto.WidgetSettingsResponse, error)
	GetVoiceSecrets(ctx context.Context, organizationID string) (*VoiceSecrets, error)
}

type Bootstrapper struct {
	backend  Backend
	store    SessionStore
	logger   *slog.Logger
	onChange func(State)
}

type Option func(*Bootstrapper)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = logger
	}
}

// WithObserver registers fn to receive every intermediate state.
func WithObserver(fn func(State)) Option {
	return func(b *Bootstrapper) {
		b.onChange = fn
	}
}

func NewBootstrapper(backend Backend, store SessionStore, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		backend: backend,
		store:   store,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run walks org, session, settings and vapi in order and returns the final state.
// Each stage starts only after the previous one has completed.
func (b *Bootstrapper) Run(ctx context.Context, organizationID string) State {
	state := NewState()
	dispatch := func(a Action) {
		state = Reduce(state, a)
		if b.onChange != nil {
			b.onChange(state)
		}
	}

	// org
	dispatch(SetLoadingMessage{Message: "Verifying organization"})
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		dispatch(Fail{Message: msgOrganizationRequired})
		return state
	}
	validation, err := b.backend.ValidateOrganization(ctx, organizationID)
	if err != nil {
		b.logger.Warn("organization validation failed", "organizationId", organizationID, "error", err)
		dispatch(Fail{Message: msgUnableToVerify})
		return state
	}
	if !validation.Valid {
		reason := validation.Reason
		if reason == "" {
			reason = msgInvalidConfiguration
		}
		dispatch(Fail{Message: reason})
		return state
	}
	dispatch(OrganizationVerified{OrganizationID: organizationID})

	// session
	dispatch(SetLoadingMessage{Message: "Finding session..."})
	contactSessionID, err := b.store.Get(organizationID)
	if err != nil {
		b.logger.Warn("reading stored session failed", "organizationId", organizationID, "error", err)
		contactSessionID = ""
	}
	valid := false
	if contactSessionID != "" {
		dispatch(SetLoadingMessage{Message: "Verifying session..."})
		result, err := b.backend.ValidateContactSession(ctx, contactSessionID)
		switch {
		case err != nil:
			b.logger.Warn("session validation failed", "contactSessionId", contactSessionID, "error", err)
		case !result.Valid:
			b.logger.Info("stored session rejected", "contactSessionId", contactSessionID, "reason", result.Reason)
		default:
			valid = true
		}
	}
	dispatch(SessionChecked{ContactSessionID: contactSessionID, Valid: valid})

	// settings
	dispatch(SetLoadingMessage{Message: "Loading widget settings..."})
	settings, err := b.backend.GetWidgetSettings(ctx, organizationID)
	if err != nil {
		b.logger.Warn("loading widget settings failed", "organizationId", organizationID, "error", err)
		dispatch(Fail{Message: msgSettingsUnavailable})
		return state
	}
	dispatch(SettingsLoaded{Settings: settings})

	// vapi
	dispatch(SetLoadingMessage{Message: "Loading assistants..."})
	secrets, err := b.backend.GetVoiceSecrets(ctx, organizationID)
	if err != nil {
		b.logger.Warn("loading voice secrets failed", "organizationId", organizationID, "error", err)
		secrets = nil
	}
	dispatch(VoiceSecretsLoaded{Secrets: secrets})

	dispatch(Finish{})
	return state
}

// Bootstrap runs the sequence once with default options.
func Bootstrap(ctx context.Context, backend Backend, store SessionStore, organizationID string) State {
	return NewBootstrapper(backend, store).Run(ctx, organizationID)
}

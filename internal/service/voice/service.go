package voice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
	"support-chat-backend/internal/secrets"
	"support-chat-backend/internal/service/voice/vapi"
)

const credentialsIncorrect = "Credentials incorrect. Please reconnect your Vapi account."

// Credentials is the secret JSON stored per organization.
type Credentials struct {
	PrivateAPIKey string `json:"privateApiKey"`
	PublicAPIKey  string `json:"publicApiKey"`
}

type PublicKey struct {
	PublicAPIKey string `json:"publicApiKey"`
}

type Provider interface {
	ListPhoneNumbers(ctx context.Context, privateAPIKey string) ([]vapi.PhoneNumber, error)
	ListAssistants(ctx context.Context, privateAPIKey string) ([]vapi.Assistant, error)
}

type Service struct {
	repo     Repository
	secrets  secrets.Store
	provider Provider
	now      func() time.Time
}

func New(db *database.Database, store secrets.Store, provider Provider) *Service {
	return NewWithRepository(NewDynamoRepository(db), store, provider, time.Now)
}

func NewWithRepository(repo Repository, store secrets.Store, provider Provider, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, secrets: store, provider: provider, now: now}
}

// GetPublicKey returns the organization's public Vapi key, or nil when voice
// is not connected or the stored secret holds no public key.
func (s *Service) GetPublicKey(ctx context.Context, organizationID string) (*PublicKey, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, apperror.BadRequest("Missing organization ID")
	}

	plugin, err := s.findPlugin(ctx, organizationID)
	if err != nil || plugin == nil {
		return nil, err
	}

	creds, err := s.readCredentials(ctx, plugin.SecretName)
	if err != nil {
		return nil, err
	}
	if creds == nil || creds.PublicAPIKey == "" {
		return nil, nil
	}
	return &PublicKey{PublicAPIKey: creds.PublicAPIKey}, nil
}

func (s *Service) UpsertCredentials(ctx context.Context, op identity.Operator, creds Credentials) (model.PluginItem, error) {
	if err := op.Require(); err != nil {
		return model.PluginItem{}, err
	}
	creds.PublicAPIKey = strings.TrimSpace(creds.PublicAPIKey)
	creds.PrivateAPIKey = strings.TrimSpace(creds.PrivateAPIKey)
	if creds.PublicAPIKey == "" || creds.PrivateAPIKey == "" {
		return model.PluginItem{}, apperror.BadRequest("Both public and private API keys are required")
	}

	secretName := secrets.OrganizationSecretName(op.OrganizationID, model.PluginServiceVapi)
	value, err := json.Marshal(creds)
	if err != nil {
		return model.PluginItem{}, apperror.Internal("failed to encode credentials", err)
	}
	if err := s.secrets.Put(ctx, secretName, string(value)); err != nil {
		return model.PluginItem{}, apperror.Internal("failed to store credentials", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	plugin := model.PluginItem{
		PK:             pluginKey(op.OrganizationID, model.PluginServiceVapi),
		OrganizationID: op.OrganizationID,
		Service:        model.PluginServiceVapi,
		SecretName:     secretName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	existing, err := s.findPlugin(ctx, op.OrganizationID)
	if err != nil {
		return model.PluginItem{}, err
	}
	if existing != nil {
		plugin.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.PutPlugin(ctx, plugin); err != nil {
		return model.PluginItem{}, apperror.Internal("failed to save plugin", err)
	}
	return plugin, nil
}

func (s *Service) GetPlugin(ctx context.Context, op identity.Operator) (*model.PluginItem, error) {
	if err := op.Require(); err != nil {
		return nil, err
	}
	return s.findPlugin(ctx, op.OrganizationID)
}

// RemovePlugin disconnects voice. The stored secret is left in place and is
// overwritten on the next connect.
func (s *Service) RemovePlugin(ctx context.Context, op identity.Operator) error {
	if err := op.Require(); err != nil {
		return err
	}
	plugin, err := s.findPlugin(ctx, op.OrganizationID)
	if err != nil {
		return err
	}
	if plugin == nil {
		return apperror.NotFound("Plugin not found")
	}
	if err := s.repo.DeletePlugin(ctx, op.OrganizationID, model.PluginServiceVapi); err != nil {
		return apperror.Internal("failed to remove plugin", err)
	}
	return nil
}

func (s *Service) ListPhoneNumbers(ctx context.Context, op identity.Operator) ([]vapi.PhoneNumber, error) {
	key, err := s.privateKey(ctx, op)
	if err != nil {
		return nil, err
	}
	numbers, err := s.provider.ListPhoneNumbers(ctx, key)
	if err != nil {
		return nil, providerError(err, "failed to list phone numbers")
	}
	return numbers, nil
}

func (s *Service) ListAssistants(ctx context.Context, op identity.Operator) ([]vapi.Assistant, error) {
	key, err := s.privateKey(ctx, op)
	if err != nil {
		return nil, err
	}
	assistants, err := s.provider.ListAssistants(ctx, key)
	if err != nil {
		return nil, providerError(err, "failed to list assistants")
	}
	return assistants, nil
}

func (s *Service) privateKey(ctx context.Context, op identity.Operator) (string, error) {
	if err := op.Require(); err != nil {
		return "", err
	}
	plugin, err := s.findPlugin(ctx, op.OrganizationID)
	if err != nil {
		return "", err
	}
	if plugin == nil {
		return "", apperror.NotFound("Plugin not found")
	}

	creds, err := s.readCredentials(ctx, plugin.SecretName)
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", apperror.NotFound("Credentials not found")
	}
	if creds.PrivateAPIKey == "" || creds.PublicAPIKey == "" {
		return "", apperror.NotFound(credentialsIncorrect)
	}
	return creds.PrivateAPIKey, nil
}

func (s *Service) findPlugin(ctx context.Context, organizationID string) (*model.PluginItem, error) {
	plugin, err := s.repo.GetPlugin(ctx, organizationID, model.PluginServiceVapi)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to load plugin", err)
	}
	return &plugin, nil
}

// readCredentials returns nil when the secret is missing or unreadable.
func (s *Service) readCredentials(ctx context.Context, secretName string) (*Credentials, error) {
	raw, err := s.secrets.Get(ctx, secretName)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to read credentials", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		slog.WarnContext(ctx, "stored voice credentials are not valid JSON", "secret", secretName)
		return nil, nil
	}
	return &creds, nil
}

func providerError(err error, msg string) error {
	if errors.Is(err, vapi.ErrUnauthorized) {
		return apperror.NotFound(credentialsIncorrect)
	}
	return apperror.Internal(msg, err)
}

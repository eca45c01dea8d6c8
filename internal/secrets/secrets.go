package secrets

import (
	"context"
	"errors"
	"fmt"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/env"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

var ErrNotFound = errors.New("secret not found")

// Store keeps opaque secret strings by name.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, value string) error
}

type SecretsManagerStore struct {
	svc *secretsmanager.Client
}

func NewSecretsManagerStore(ctx context.Context) (*SecretsManagerStore, error) {
	cfg, err := database.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	opts := []func(*secretsmanager.Options){}
	if endpoint := env.Get(env.SecretsEndpoint); endpoint != "" {
		opts = append(opts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &SecretsManagerStore{svc: secretsmanager.NewFromConfig(cfg, opts...)}, nil
}

func (s *SecretsManagerStore) Get(ctx context.Context, name string) (string, error) {
	out, err := s.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return "", fmt.Errorf("get secret %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("get secret %s: %w", name, ErrNotFound)
	}
	return *out.SecretString, nil
}

// Put writes a new version of the secret, creating it on first use.
func (s *SecretsManagerStore) Put(ctx context.Context, name, value string) error {
	_, err := s.svc.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}

	var rnf *types.ResourceNotFoundException
	if !errors.As(err, &rnf) {
		return fmt.Errorf("put secret %s: %w", name, err)
	}

	_, err = s.svc.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("create secret %s: %w", name, err)
	}
	return nil
}

func OrganizationSecretName(organizationID, service string) string {
	return fmt.Sprintf("tenant/%s/%s", organizationID, service)
}

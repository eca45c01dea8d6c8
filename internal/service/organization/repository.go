package organization

import (
	"context"
	"errors"
	"strconv"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("organization repository: not found")

type Repository interface {
	CreateOrganization(ctx context.Context, org model.OrganizationItem) error
	GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error)
	UpdateMaxMemberships(ctx context.Context, organizationID string, maxMemberships int) error
	GetSubscription(ctx context.Context, organizationID string) (model.SubscriptionItem, error)
	PutSubscription(ctx context.Context, sub model.SubscriptionItem) error
	GetWidgetSettings(ctx context.Context, organizationID string) (model.WidgetSettingsItem, error)
	PutWidgetSettings(ctx context.Context, settings model.WidgetSettingsItem) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func organizationKey(organizationID string) map[string]types.AttributeValue {
	return database.StringKey("organizationId", organizationID)
}

func (r *DynamoRepository) CreateOrganization(ctx context.Context, org model.OrganizationItem) error {
	return r.db.Client.PutItem(ctx, model.OrganizationsTable, org)
}

func (r *DynamoRepository) GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error) {
	var org model.OrganizationItem
	if err := r.db.Client.GetItem(ctx, model.OrganizationsTable, organizationKey(organizationID), &org); err != nil {
		return model.OrganizationItem{}, mapNotFound(err)
	}
	return org, nil
}

func (r *DynamoRepository) UpdateMaxMemberships(ctx context.Context, organizationID string, maxMemberships int) error {
	err := r.db.Client.UpdateItem(
		ctx,
		model.OrganizationsTable,
		organizationKey(organizationID),
		"SET maxMemberships = :max",
		"attribute_exists(organizationId)",
		map[string]types.AttributeValue{
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(maxMemberships)},
		},
		nil,
		nil,
	)
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoRepository) GetSubscription(ctx context.Context, organizationID string) (model.SubscriptionItem, error) {
	var sub model.SubscriptionItem
	if err := r.db.Client.GetItem(ctx, model.SubscriptionsTable, organizationKey(organizationID), &sub); err != nil {
		return model.SubscriptionItem{}, mapNotFound(err)
	}
	return sub, nil
}

func (r *DynamoRepository) PutSubscription(ctx context.Context, sub model.SubscriptionItem) error {
	return r.db.Client.PutItem(ctx, model.SubscriptionsTable, sub)
}

func (r *DynamoRepository) GetWidgetSettings(ctx context.Context, organizationID string) (model.WidgetSettingsItem, error) {
	var settings model.WidgetSettingsItem
	if err := r.db.Client.GetItem(ctx, model.WidgetSettingsTable, organizationKey(organizationID), &settings); err != nil {
		return model.WidgetSettingsItem{}, mapNotFound(err)
	}
	return settings, nil
}

func (r *DynamoRepository) PutWidgetSettings(ctx context.Context, settings model.WidgetSettingsItem) error {
	return r.db.Client.PutItem(ctx, model.WidgetSettingsTable, settings)
}

func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

package auth

import (
	"context"
	"errors"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("auth repository: not found")

type Repository interface {
	CreateOrganization(ctx context.Context, org model.OrganizationItem) error
	CreateOperator(ctx context.Context, operator model.OperatorItem) error
	ListOperatorsByEmail(ctx context.Context, email string) ([]model.OperatorItem, error)
	GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error)
	GetOperator(ctx context.Context, organizationID, operatorID string) (model.OperatorItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateOrganization(ctx context.Context, org model.OrganizationItem) error {
	return r.db.Client.PutItem(ctx, model.OrganizationsTable, org)
}

func (r *DynamoRepository) CreateOperator(ctx context.Context, operator model.OperatorItem) error {
	return r.db.Client.PutItem(ctx, model.OperatorsTable, operator)
}

func (r *DynamoRepository) ListOperatorsByEmail(ctx context.Context, email string) ([]model.OperatorItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.OperatorsTable,
		aws.String(model.OperatorsByEmailIndex),
		"email = :email",
		map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return database.UnmarshalItems[model.OperatorItem](items)
}

func (r *DynamoRepository) GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error) {
	var org model.OrganizationItem
	err := r.db.Client.GetItem(ctx, model.OrganizationsTable, database.StringKey("organizationId", organizationID), &org)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.OrganizationItem{}, ErrNotFound
		}
		return model.OrganizationItem{}, err
	}
	return org, nil
}

func (r *DynamoRepository) GetOperator(ctx context.Context, organizationID, operatorID string) (model.OperatorItem, error) {
	var operator model.OperatorItem
	err := r.db.Client.GetItem(
		ctx,
		model.OperatorsTable,
		database.StringKey("pk", model.OrganizationScopedPK(organizationID, operatorID)),
		&operator,
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.OperatorItem{}, ErrNotFound
		}
		return model.OperatorItem{}, err
	}
	return operator, nil
}

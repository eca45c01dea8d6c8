package knowledge

import (
	"context"
	"errors"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("knowledge repository: not found")

type Repository interface {
	PutEntry(ctx context.Context, entry model.KnowledgeEntryItem) error
	GetEntry(ctx context.Context, organizationID, entryID string) (model.KnowledgeEntryItem, error)
	ListEntries(ctx context.Context, organizationID string) ([]model.KnowledgeEntryItem, error)
	DeleteEntry(ctx context.Context, organizationID, entryID string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func entryKey(organizationID, entryID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"organizationId": &types.AttributeValueMemberS{Value: organizationID},
		"entryId":        &types.AttributeValueMemberS{Value: entryID},
	}
}

func (r *DynamoRepository) PutEntry(ctx context.Context, entry model.KnowledgeEntryItem) error {
	return r.db.Client.PutItem(ctx, model.KnowledgeEntriesTable, entry)
}

func (r *DynamoRepository) GetEntry(ctx context.Context, organizationID, entryID string) (model.KnowledgeEntryItem, error) {
	var entry model.KnowledgeEntryItem
	if err := r.db.Client.GetItem(ctx, model.KnowledgeEntriesTable, entryKey(organizationID, entryID), &entry); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.KnowledgeEntryItem{}, ErrNotFound
		}
		return model.KnowledgeEntryItem{}, err
	}
	return entry, nil
}

func (r *DynamoRepository) ListEntries(ctx context.Context, organizationID string) ([]model.KnowledgeEntryItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.KnowledgeEntriesTable,
		nil,
		"organizationId = :organizationId",
		map[string]types.AttributeValue{
			":organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return database.UnmarshalItems[model.KnowledgeEntryItem](items)
}

func (r *DynamoRepository) DeleteEntry(ctx context.Context, organizationID, entryID string) error {
	return r.db.Client.DeleteItem(ctx, model.KnowledgeEntriesTable, entryKey(organizationID, entryID))
}

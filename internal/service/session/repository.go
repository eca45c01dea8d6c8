package session

import (
	"context"
	"errors"
	"strconv"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("session repository: not found")
	// ErrNotExtended means the stored expiry is already at or past the requested one.
	ErrNotExtended = errors.New("session repository: expiry not extended")
)

type Repository interface {
	CreateSession(ctx context.Context, session model.ContactSessionItem) error
	GetSession(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error)
	ExtendExpiry(ctx context.Context, contactSessionID string, expiresAt int64) (model.ContactSessionItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func sessionKey(contactSessionID string) map[string]types.AttributeValue {
	return database.StringKey("contactSessionId", contactSessionID)
}

func (r *DynamoRepository) CreateSession(ctx context.Context, session model.ContactSessionItem) error {
	return r.db.Client.PutItem(ctx, model.ContactSessionsTable, session)
}

func (r *DynamoRepository) GetSession(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error) {
	var session model.ContactSessionItem
	if err := r.db.Client.GetItem(ctx, model.ContactSessionsTable, sessionKey(contactSessionID), &session); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.ContactSessionItem{}, ErrNotFound
		}
		return model.ContactSessionItem{}, err
	}
	return session, nil
}

// ExtendExpiry only ever moves expiresAt forward.
func (r *DynamoRepository) ExtendExpiry(ctx context.Context, contactSessionID string, expiresAt int64) (model.ContactSessionItem, error) {
	var updated model.ContactSessionItem
	err := r.db.Client.UpdateItem(
		ctx,
		model.ContactSessionsTable,
		sessionKey(contactSessionID),
		"SET expiresAt = :expiresAt",
		"attribute_exists(contactSessionId) AND expiresAt < :expiresAt",
		map[string]types.AttributeValue{
			":expiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
		},
		nil,
		&updated,
	)
	if err != nil {
		if errors.Is(err, database.ErrConditionFailed) {
			return model.ContactSessionItem{}, ErrNotExtended
		}
		return model.ContactSessionItem{}, err
	}
	return updated, nil
}

package conversation

import (
	"context"
	"errors"
	"fmt"

	"support-chat-backend/internal/database"
	"support-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound       = errors.New("conversation repository: not found")
	ErrStatusConflict = errors.New("conversation repository: status changed concurrently")
)

type Repository interface {
	CreateConversation(ctx context.Context, conversation model.ConversationItem, thread model.ThreadItem, greeting *model.MessageItem) error
	GetConversation(ctx context.Context, conversationID string) (model.ConversationItem, error)
	GetConversationByThread(ctx context.Context, threadID string) (model.ConversationItem, error)
	ListOrganizationConversations(ctx context.Context, organizationID string, status model.ConversationStatus, limit int, cursor string) (model.Page[model.ConversationItem], error)
	ListSessionConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[model.ConversationItem], error)
	// ReserveMessageOrders claims count consecutive order values and returns the first.
	ReserveMessageOrders(ctx context.Context, threadID string, count int) (int64, error)
	// AppendMessages stores messages and moves the conversation to next in one
	// transaction, provided its status is still conversation.Status.
	AppendMessages(ctx context.Context, conversation model.ConversationItem, next model.ConversationStatus, messages []model.MessageItem, updatedAt string) error
	UpdateStatus(ctx context.Context, conversation model.ConversationItem, next model.ConversationStatus, updatedAt string) error
	ListMessages(ctx context.Context, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateConversation(ctx context.Context, conversation model.ConversationItem, thread model.ThreadItem, greeting *model.MessageItem) error {
	conversationPut, err := database.TransactPut(model.ConversationsTable, conversation, "attribute_not_exists(conversationId)", nil)
	if err != nil {
		return err
	}
	threadPut, err := database.TransactPut(model.ThreadsTable, thread, "attribute_not_exists(threadId)", nil)
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{conversationPut, threadPut}

	if greeting != nil {
		greetingPut, err := database.TransactPut(model.MessagesTable, greeting, "", nil)
		if err != nil {
			return err
		}
		items = append(items, greetingPut)
	}

	return r.db.Client.TransactWrite(ctx, items)
}

func (r *DynamoRepository) GetConversation(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	var conversation model.ConversationItem
	err := r.db.Client.GetItem(ctx, model.ConversationsTable, database.StringKey("conversationId", conversationID), &conversation)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.ConversationItem{}, ErrNotFound
		}
		return model.ConversationItem{}, err
	}
	return conversation, nil
}

func (r *DynamoRepository) GetConversationByThread(ctx context.Context, threadID string) (model.ConversationItem, error) {
	index := model.ConversationsByThreadIndex
	items, err := r.db.Client.QueryItems(
		ctx,
		model.ConversationsTable,
		&index,
		"threadId = :threadId",
		map[string]types.AttributeValue{
			":threadId": &types.AttributeValueMemberS{Value: threadID},
		},
		nil,
		nil,
	)
	if err != nil {
		return model.ConversationItem{}, err
	}
	if len(items) == 0 {
		return model.ConversationItem{}, ErrNotFound
	}

	conversations, err := database.UnmarshalItems[model.ConversationItem](items[:1])
	if err != nil {
		return model.ConversationItem{}, err
	}
	return conversations[0], nil
}

// ListOrganizationConversations lists newest-created first. The cursor is the last
// returned key on a createdAt-sorted index, so status changes between pages do not skip
// or repeat conversations; a status filter only sees the status at query time.
func (r *DynamoRepository) ListOrganizationConversations(
	ctx context.Context,
	organizationID string,
	status model.ConversationStatus,
	limit int,
	cursor string,
) (model.Page[model.ConversationItem], error) {
	in := database.QueryInput{
		TableName:  model.ConversationsTable,
		IndexName:  model.ConversationsByOrganizationIndex,
		KeyCond:    "organizationId = :pk",
		Values:     map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: organizationID}},
		Limit:      limit,
		Cursor:     cursor,
		Descending: true,
	}
	if status != "" {
		in.IndexName = model.ConversationsByOrgStatusIndex
		in.KeyCond = "orgStatus = :pk"
		in.Values[":pk"] = &types.AttributeValueMemberS{Value: model.OrganizationStatusKey(organizationID, status)}
	}
	return queryPage[model.ConversationItem](ctx, r.db, in)
}

func (r *DynamoRepository) ListSessionConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[model.ConversationItem], error) {
	return queryPage[model.ConversationItem](ctx, r.db, database.QueryInput{
		TableName:  model.ConversationsTable,
		IndexName:  model.ConversationsByContactSessionIndex,
		KeyCond:    "contactSessionId = :pk",
		Values:     map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: contactSessionID}},
		Limit:      limit,
		Cursor:     cursor,
		Descending: true,
	})
}

func (r *DynamoRepository) ReserveMessageOrders(ctx context.Context, threadID string, count int) (int64, error) {
	last, err := r.db.Client.AddToCounter(ctx, model.ThreadsTable, database.StringKey("threadId", threadID), "nextOrder", int64(count))
	if err != nil {
		return 0, err
	}
	return last - int64(count) + 1, nil
}

func (r *DynamoRepository) AppendMessages(
	ctx context.Context,
	conversation model.ConversationItem,
	next model.ConversationStatus,
	messages []model.MessageItem,
	updatedAt string,
) error {
	items := make([]types.TransactWriteItem, 0, len(messages)+1)
	for _, message := range messages {
		put, err := database.TransactPut(model.MessagesTable, message, "attribute_not_exists(#order)", map[string]string{"#order": "order"})
		if err != nil {
			return err
		}
		items = append(items, put)
	}
	items = append(items, statusUpdate(conversation, next, updatedAt))

	return mapConflict(r.db.Client.TransactWrite(ctx, items))
}

func (r *DynamoRepository) UpdateStatus(ctx context.Context, conversation model.ConversationItem, next model.ConversationStatus, updatedAt string) error {
	return mapConflict(r.db.Client.TransactWrite(ctx, []types.TransactWriteItem{statusUpdate(conversation, next, updatedAt)}))
}

func (r *DynamoRepository) ListMessages(ctx context.Context, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	return queryPage[model.MessageItem](ctx, r.db, database.QueryInput{
		TableName:  model.MessagesTable,
		KeyCond:    "threadId = :threadId",
		Values:     map[string]types.AttributeValue{":threadId": &types.AttributeValueMemberS{Value: threadID}},
		Limit:      limit,
		Cursor:     cursor,
		Descending: true,
	})
}

// statusUpdate guards the write with the status the caller read.
func statusUpdate(conversation model.ConversationItem, next model.ConversationStatus, updatedAt string) types.TransactWriteItem {
	return database.TransactUpdate(
		model.ConversationsTable,
		database.StringKey("conversationId", conversation.ConversationID),
		"SET #status = :next, orgStatus = :orgStatus, updatedAt = :updatedAt",
		"#status = :expected",
		map[string]types.AttributeValue{
			":next":      &types.AttributeValueMemberS{Value: string(next)},
			":orgStatus": &types.AttributeValueMemberS{Value: model.OrganizationStatusKey(conversation.OrganizationID, next)},
			":updatedAt": &types.AttributeValueMemberS{Value: updatedAt},
			":expected":  &types.AttributeValueMemberS{Value: string(conversation.Status)},
		},
		map[string]string{"#status": "status"},
	)
}

func mapConflict(err error) error {
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrStatusConflict
	}
	return err
}

func queryPage[T any](ctx context.Context, db *database.Database, in database.QueryInput) (model.Page[T], error) {
	page, err := db.Client.QueryPage(ctx, in)
	if err != nil {
		return model.Page[T]{}, err
	}
	items, err := database.UnmarshalItems[T](page.Items)
	if err != nil {
		return model.Page[T]{}, fmt.Errorf("list %s: %w", in.TableName, err)
	}
	return model.Page[T]{Page: items, ContinueCursor: page.Cursor, IsDone: page.IsDone}, nil
}

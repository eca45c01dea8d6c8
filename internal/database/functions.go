package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrConditionFailed = errors.New("condition check failed")
)

// Page is one slice of a query plus the opaque cursor that continues it.
type Page struct {
	Items  []map[string]types.AttributeValue
	Cursor string
	IsDone bool
}

type QueryInput struct {
	TableName  string
	IndexName  string
	KeyCond    string
	Filter     string
	Values     map[string]types.AttributeValue
	Names      map[string]string
	Limit      int
	Cursor     string
	Descending bool
}

func attrString(value string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: value}
}

func StringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: attrString(value)}
}

func (c *DynamoDBClient) PutItem(
	ctx context.Context,
	tableName string,
	item interface{},
) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	}

	_, err = c.svc.PutItem(ctx, input)
	if err != nil {
		return fmt.Errorf("put item %s: %w", tableName, err)
	}
	return nil
}

func (c *DynamoDBClient) GetItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	out interface{},
) error {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	}

	res, err := c.svc.GetItem(ctx, input)
	if err != nil {
		return fmt.Errorf("get item %s: %w", tableName, err)
	}
	if res.Item == nil {
		return fmt.Errorf("%w in %s", ErrNotFound, tableName)
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

// UpdateItem applies updateExpr and, when conditionExpr is not empty, only if it holds.
// A failed condition is reported as ErrConditionFailed.
func (c *DynamoDBClient) UpdateItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	updateExpr string,
	conditionExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
	out interface{},
) error {
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(exprAttrNames) > 0 {
		input.ExpressionAttributeNames = exprAttrNames
	}
	if conditionExpr != "" {
		input.ConditionExpression = aws.String(conditionExpr)
	}

	res, err := c.svc.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("update item %s: %w", tableName, ErrConditionFailed)
		}
		return fmt.Errorf("update item %s: %w", tableName, err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return fmt.Errorf("unmarshal updated item: %w", err)
		}
	}
	return nil
}

// AddToCounter atomically adds delta to a numeric attribute and returns the new value.
// The item is created when it does not exist yet.
func (c *DynamoDBClient) AddToCounter(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	attribute string,
	delta int64,
) (int64, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(tableName),
		Key:              key,
		UpdateExpression: aws.String("ADD #counter :delta"),
		ExpressionAttributeNames: map[string]string{
			"#counter": attribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	res, err := c.svc.UpdateItem(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("add to counter %s.%s: %w", tableName, attribute, err)
	}

	raw, ok := res.Attributes[attribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("add to counter %s.%s: missing value in response", tableName, attribute)
	}
	value, err := strconv.ParseInt(raw.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("add to counter %s.%s: %w", tableName, attribute, err)
	}
	return value, nil
}

func (c *DynamoDBClient) DeleteItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	_, err := c.svc.DeleteItem(ctx, input)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", tableName, err)
	}
	return nil
}

func (c *DynamoDBClient) QueryItems(
	ctx context.Context,
	tableName string,
	indexName *string,
	keyCondExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
	scanIndexForward *bool,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String(keyCondExpr),
		ExpressionAttributeValues: exprAttrValues,
	}
	if indexName != nil {
		input.IndexName = indexName
	}
	if exprAttrNames != nil {
		input.ExpressionAttributeNames = exprAttrNames
	}

	if scanIndexForward != nil {
		input.ScanIndexForward = aws.Bool(*scanIndexForward)
	}

	out, err := c.svc.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query %s[%s]: %w", tableName, aws.ToString(indexName), err)
	}

	return out.Items, nil
}

// QueryPage runs a single bounded query and returns an opaque cursor for the next page.
func (c *DynamoDBClient) QueryPage(ctx context.Context, in QueryInput) (Page, error) {
	pageSize := in.Limit
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(in.TableName),
		KeyConditionExpression:    aws.String(in.KeyCond),
		ExpressionAttributeValues: in.Values,
		Limit:                     aws.Int32(int32(pageSize)),
		ScanIndexForward:          aws.Bool(!in.Descending),
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if in.Filter != "" {
		input.FilterExpression = aws.String(in.Filter)
	}
	if len(in.Names) > 0 {
		input.ExpressionAttributeNames = in.Names
	}
	if in.Cursor != "" {
		startKey, err := DecodeCursor(in.Cursor)
		if err != nil {
			return Page{}, err
		}
		input.ExclusiveStartKey = startKey
	}

	result, err := c.svc.Query(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("query page %s[%s]: %w", in.TableName, in.IndexName, err)
	}

	cursor, err := EncodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Items:  result.Items,
		Cursor: cursor,
		IsDone: len(result.LastEvaluatedKey) == 0,
	}, nil
}

// QueryAll performs a complete query, handling pagination internally.
func (c *DynamoDBClient) QueryAll(
	ctx context.Context,
	tableName string,
	indexName *string,
	keyCondExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
) ([]map[string]types.AttributeValue, error) {
	var allItems []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(tableName),
			KeyConditionExpression:    aws.String(keyCondExpr),
			ExpressionAttributeValues: exprAttrValues,
		}

		if indexName != nil {
			input.IndexName = indexName
		}
		if exprAttrNames != nil {
			input.ExpressionAttributeNames = exprAttrNames
		}

		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := c.svc.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query all %s[%s]: %w", tableName, aws.ToString(indexName), err)
		}

		allItems = append(allItems, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return allItems, nil
}

// BatchGetByKeys loads items by a single string partition key, 100 keys per request.
func (c *DynamoDBClient) BatchGetByKeys(
	ctx context.Context,
	tableName string,
	keyField string,
	keyValues []string,
) ([]map[string]types.AttributeValue, error) {
	if len(keyValues) == 0 {
		return []map[string]types.AttributeValue{}, nil
	}

	const batchSize = 100
	var allItems []map[string]types.AttributeValue

	for i := 0; i < len(keyValues); i += batchSize {
		end := i + batchSize
		if end > len(keyValues) {
			end = len(keyValues)
		}

		items, err := c.batchGetChunk(ctx, tableName, keyValues[i:end], keyField)
		if err != nil {
			return nil, err
		}
		allItems = append(allItems, items...)
	}

	return allItems, nil
}

func (c *DynamoDBClient) batchGetChunk(
	ctx context.Context,
	tableName string,
	keyValues []string,
	keyField string,
) ([]map[string]types.AttributeValue, error) {
	keys := make([]map[string]types.AttributeValue, len(keyValues))
	for i, value := range keyValues {
		keys[i] = StringKey(keyField, value)
	}

	requestItems := map[string]types.KeysAndAttributes{
		tableName: {Keys: keys},
	}

	var items []map[string]types.AttributeValue
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries && len(requestItems) > 0; attempt++ {
		res, err := c.svc.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: requestItems})
		if err != nil {
			return nil, fmt.Errorf("batch get %s: %w", tableName, err)
		}
		items = append(items, res.Responses[tableName]...)
		requestItems = res.UnprocessedKeys
	}
	if len(requestItems) > 0 {
		return nil, fmt.Errorf("batch get %s: unprocessed keys after %d attempts", tableName, maxRetries)
	}

	return items, nil
}

// TransactWrite commits all items atomically. A cancelled transaction caused by a
// failed condition is reported as ErrConditionFailed.
func (c *DynamoDBClient) TransactWrite(ctx context.Context, items []types.TransactWriteItem) error {
	if len(items) == 0 {
		return nil
	}

	_, err := c.svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return fmt.Errorf("transact write: %w", ErrConditionFailed)
				}
			}
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func TransactPut(tableName string, item interface{}, conditionExpr string, names map[string]string) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal item: %w", err)
	}

	put := &types.Put{
		TableName: aws.String(tableName),
		Item:      av,
	}
	if conditionExpr != "" {
		put.ConditionExpression = aws.String(conditionExpr)
	}
	if len(names) > 0 {
		put.ExpressionAttributeNames = names
	}
	return types.TransactWriteItem{Put: put}, nil
}

func TransactUpdate(
	tableName string,
	key map[string]types.AttributeValue,
	updateExpr string,
	conditionExpr string,
	values map[string]types.AttributeValue,
	names map[string]string,
) types.TransactWriteItem {
	update := &types.Update{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
	}
	if conditionExpr != "" {
		update.ConditionExpression = aws.String(conditionExpr)
	}
	if len(names) > 0 {
		update.ExpressionAttributeNames = names
	}
	return types.TransactWriteItem{Update: update}
}

func UnmarshalItems[T any](items []map[string]types.AttributeValue) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item, &v); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

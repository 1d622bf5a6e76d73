package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/needcart-api/internal/domain"
)

// OrderRepo provides typed DynamoDB operations for the orders table.
type OrderRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepo(client *dynamodb.Client, tableName string) *OrderRepo {
	return &OrderRepo{client: client, tableName: tableName}
}

func (r *OrderRepo) Put(ctx context.Context, o *domain.Order) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("order_id", orderID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("order not found: %w", domain.ErrNotFound)
	}
	var o domain.Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListBySeller returns a page of the seller's orders via the seller_id GSI.
// cursor is a base64-encoded order_id; the seller_id half of the index key
// is implied by the query itself.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID string, limit int32, cursor string) ([]domain.Order, string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("seller_id-index"),
		KeyConditionExpression: aws.String("seller_id = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: sellerID},
		},
		Limit: aws.Int32(limit),
	}
	if cursor != "" {
		orderID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = compositeKey("seller_id", sellerID, "order_id", orderID)
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var orders []domain.Order
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &orders); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["order_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return orders, nextCursor, nil
}

// Complete flips the order to completed, conditional on it still being
// pending. Concurrent completion signals for the same order collapse into
// one winner; losers get ErrConflict.
func (r *OrderRepo) Complete(ctx context.Context, orderID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:  domain.OrderCompleted,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	ue.Values[":pending"] = &types.AttributeValueMemberS{Value: domain.OrderPending}
	ue.Names["#cs"] = fieldStatus

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("order_id", orderID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(order_id) AND #cs = :pending"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if _, getErr := r.Get(ctx, orderID); getErr != nil {
				return getErr
			}
			return fmt.Errorf("order %s is not pending: %w", orderID, domain.ErrConflict)
		}
		return err
	}
	return nil
}

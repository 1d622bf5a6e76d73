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

// EscrowRepo provides typed DynamoDB operations for the escrow payouts table.
// All state transitions are conditional writes; there is no unconditional
// update path to the escrow_status attribute.
type EscrowRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEscrowRepo(client *dynamodb.Client, tableName string) *EscrowRepo {
	return &EscrowRepo{client: client, tableName: tableName}
}

// Create inserts the payout record, enforcing the one-record-per-order
// invariant. Returns ErrDuplicateEscrow when a record for the order exists,
// regardless of which concurrent creator got there first.
func (r *EscrowRepo) Create(ctx context.Context, p *domain.EscrowPayout) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal escrow payout: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("escrow exists for order %s: %w", p.OrderID, domain.ErrDuplicateEscrow)
		}
		return err
	}
	return nil
}

func (r *EscrowRepo) Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("order_id", orderID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("escrow payout not found: %w", domain.ErrNotFound)
	}
	var p domain.EscrowPayout
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Release performs the held → released transition as a compare-and-set on
// escrow_status. Exactly one caller can win; everyone else observes either
// ErrNotFound (no record) or ErrAlreadyReleased. Returns the record as it
// stands after the transition.
func (r *EscrowRepo) Release(ctx context.Context, orderID string, releasedAt time.Time) (*domain.EscrowPayout, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldEscrowStatus: domain.EscrowReleased,
		fieldReleasedAt:   releasedAt,
	})
	if err != nil {
		return nil, err
	}
	ue.Values[":held"] = &types.AttributeValueMemberS{Value: domain.EscrowHeld}
	ue.Names["#st"] = fieldEscrowStatus

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("order_id", orderID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(order_id) AND #st = :held"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Disambiguate which side of the condition failed.
			if _, getErr := r.Get(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("escrow for order %s: %w", orderID, domain.ErrAlreadyReleased)
		}
		return nil, err
	}
	var p domain.EscrowPayout
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScanPage returns a page of payout records for the admin back-office.
// cursor is a base64-encoded order_id used as ExclusiveStartKey.
func (r *EscrowRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.EscrowPayout, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		orderID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("order_id", orderID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var payouts []domain.EscrowPayout
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &payouts); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["order_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return payouts, nextCursor, nil
}

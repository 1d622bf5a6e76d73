package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/needcart-api/internal/domain"
)

// SignupRepo manages pending-signup OTP records.
// PK: email, SK: code — multiple codes may be outstanding per email.
type SignupRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSignupRepo(client *dynamodb.Client, tableName string) *SignupRepo {
	return &SignupRepo{client: client, tableName: tableName}
}

func (r *SignupRepo) Put(ctx context.Context, p *domain.PendingSignup) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending signup: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// consumeCondition accepts only records created strictly after the cutoff,
// so a code is valid while now - created_at < TTL and not a second longer.
const consumeCondition = "created_at > :cutoff"

// Consume atomically deletes the (email, code) record provided it is still
// inside its validity window, and returns the deleted record. The match
// check and the delete are one conditional write, so two racing Consume
// calls for the same code cannot both succeed. A missing record and a
// too-old record fail identically with ErrCodeNotFoundOrExpired.
func (r *SignupRepo) Consume(ctx context.Context, email, code string, cutoff int64) (*domain.PendingSignup, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("email", email, "code", code),
		ConditionExpression: aws.String(consumeCondition),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", cutoff)},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("consume signup code: %w", domain.ErrCodeNotFoundOrExpired)
		}
		return nil, err
	}
	var p domain.PendingSignup
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PurgeEmail deletes every outstanding signup record for the email.
// Called after a successful consume so stale sibling codes cannot linger
// until their TTL fires.
func (r *SignupRepo) PurgeEmail(ctx context.Context, email string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		codeAttr, ok := item["code"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("email", email, "code", codeAttr.Value),
		})
		if err != nil {
			slog.Warn("failed to purge signup code", "email", email, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

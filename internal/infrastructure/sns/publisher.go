package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/needcart-api/internal/config"
)

// DisbursementPublisher hands a payout authorization to the external payment
// processor. The ledger only records that disbursement was authorized, not
// that it settled.
type DisbursementPublisher interface {
	Authorize(ctx context.Context, orderID, sellerID string, netAmount int64) error
}

// disbursementMessage is the wire payload for one payout authorization.
type disbursementMessage struct {
	OrderID   string `json:"order_id"`
	SellerID  string `json:"seller_id"`
	NetAmount int64  `json:"net_amount"`
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewPublisher creates a DisbursementPublisher backed by an SNS FIFO topic.
// The order ID doubles as the deduplication ID, so a retried Authorize for
// the same order cannot produce a second disbursement downstream.
func NewPublisher(cfg *config.Config) (DisbursementPublisher, error) {
	if cfg.PayoutTopicARN == "" {
		return nil, fmt.Errorf("SNS_PAYOUT_TOPIC_ARN not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.PayoutTopicARN}, nil
}

func (p *publisher) Authorize(ctx context.Context, orderID, sellerID string, netAmount int64) error {
	body, err := json.Marshal(disbursementMessage{
		OrderID:   orderID,
		SellerID:  sellerID,
		NetAmount: netAmount,
	})
	if err != nil {
		return fmt.Errorf("marshal disbursement message: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:               aws.String(p.topicARN),
		Message:                aws.String(string(body)),
		MessageGroupId:         aws.String("payouts"),
		MessageDeduplicationId: aws.String(orderID),
	})
	if err != nil {
		return fmt.Errorf("publish disbursement for order %s: %w", orderID, err)
	}
	return nil
}

package domain

import "time"

// Order statuses. Completing an order is what opens its escrow payout.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
)

type Order struct {
	OrderID     string    `json:"id" dynamodbav:"order_id"`
	BuyerID     string    `json:"buyer_id" dynamodbav:"buyer_id"`
	SellerID    string    `json:"seller_id" dynamodbav:"seller_id"`
	TotalAmount int64     `json:"total_amount" dynamodbav:"total_amount"` // minor units
	Status      string    `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateOrderRequest struct {
	SellerID    string `json:"seller_id" validate:"required"`
	TotalAmount int64  `json:"total_amount" validate:"required,gt=0"`
}

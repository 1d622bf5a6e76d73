package domain

import "time"

// Escrow payout statuses. A payout is always exactly one of these; the
// held → released transition happens at most once per order.
const (
	EscrowHeld     = "held"
	EscrowReleased = "released"
)

// EscrowPayout is the ledger record for one order's held funds.
// PK: order_id (1:1 with the order). All amounts are integer minor units
// (cents) so NetAmount == TotalAmount - PlatformFee holds exactly.
// ReleasedAt is non-nil if and only if EscrowStatus == EscrowReleased.
type EscrowPayout struct {
	OrderID      string     `json:"order_id" dynamodbav:"order_id"`
	SellerID     string     `json:"seller_id" dynamodbav:"seller_id"`
	TotalAmount  int64      `json:"total_amount" dynamodbav:"total_amount"`
	PlatformFee  int64      `json:"platform_fee" dynamodbav:"platform_fee"`
	NetAmount    int64      `json:"net_amount" dynamodbav:"net_amount"`
	FeeBps       int        `json:"fee_bps" dynamodbav:"fee_bps"` // rate the fee was derived from; 0 when a flat fee was applied
	EscrowStatus string     `json:"escrow_status" dynamodbav:"escrow_status"`
	ReleasedAt   *time.Time `json:"released_at,omitempty" dynamodbav:"released_at"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
}

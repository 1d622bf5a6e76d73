package dynamo

// DynamoDB attribute names used in update and filter expressions.
const (
	fieldEnable       = "enable"
	fieldStatus       = "status"
	fieldEscrowStatus = "escrow_status"
	fieldReleasedAt   = "released_at"
)

package domain

// PendingSignup holds a signup awaiting OTP confirmation.
// PK: email, SK: code — several codes may be outstanding for one email
// and each is independently consumable.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; it is storage
// hygiene only, the validity window is re-checked at consume time.
type PendingSignup struct {
	Email        string `json:"email" dynamodbav:"email"`
	Code         string `json:"-" dynamodbav:"code"`
	Role         string `json:"role" dynamodbav:"role"`
	PasswordHash string `json:"-" dynamodbav:"password_hash"`
	CreatedAt    int64  `json:"created_at" dynamodbav:"created_at"` // Unix seconds
	ExpiresAt    int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

type SignupRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Role     string  `json:"role" validate:"required"`
	Phone    *string `json:"phone"` // when set, the code is delivered by SMS instead of email
}

type VerifySignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

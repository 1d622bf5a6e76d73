package domain

import "time"

// Account roles. Buyer and seller accounts are created through OTP signup
// verification; admin accounts are provisioned out of band.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// SignupRole reports whether role is one of the roles a signup may request.
// Admin is deliberately excluded.
func SignupRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	Enable       int        `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

package http

import (
	"github.com/needcart-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/needcart-api/internal/infrastructure/jwt"
	s3infra "github.com/needcart-api/internal/infrastructure/s3"
	"github.com/needcart-api/internal/infrastructure/smtp"
	"github.com/needcart-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	OrderRepo   *dynamo.OrderRepo
	EscrowRepo  *dynamo.EscrowRepo
	SignupRepo  *dynamo.SignupRepo
	AuditStore  *s3infra.AuditStore
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	Disburser   sns.DisbursementPublisher
	JWTProvider *jwtinfra.Provider
}

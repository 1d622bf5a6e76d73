package signup

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Request issues a one-time code for a new buyer or seller signup and
	// delivers it out of band.
	Request(ctx context.Context, req domain.SignupRequest) error
	// Verify consumes the code and materializes the account. The verified
	// user is returned together with a bearer token for it.
	Verify(ctx context.Context, req domain.VerifySignupRequest) (*domain.User, string, error)
}

type signupStore interface {
	Put(ctx context.Context, p *domain.PendingSignup) error
	Consume(ctx context.Context, email, code string, cutoff int64) (*domain.PendingSignup, error)
	PurgeEmail(ctx context.Context, email string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	signupRepo signupStore
	userRepo   userStore
	mailer     mailer
	smsSender  smsSender
	jwt        jwtSigner
	codeTTL    time.Duration
}

type ServiceDeps struct {
	SignupRepo  signupStore
	UserRepo    userStore
	Mailer      mailer
	SMSSender   smsSender
	JWTProvider jwtSigner
	CodeTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		signupRepo: deps.SignupRepo,
		userRepo:   deps.UserRepo,
		mailer:     deps.Mailer,
		smsSender:  deps.SMSSender,
		jwt:        deps.JWTProvider,
		codeTTL:    deps.CodeTTL,
	}
}

func (s *service) Request(ctx context.Context, req domain.SignupRequest) error {
	if !domain.SignupRole(req.Role) {
		return fmt.Errorf("role must be %s or %s: %w", domain.RoleBuyer, domain.RoleSeller, domain.ErrBadRequest)
	}
	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	code, err := newCode()
	if err != nil {
		return err
	}

	now := time.Now()
	pending := &domain.PendingSignup{
		Email:        email,
		Code:         code,
		Role:         req.Role,
		PasswordHash: string(hash),
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(s.codeTTL).Unix(),
	}
	if err := s.signupRepo.Put(ctx, pending); err != nil {
		return err
	}

	if req.Phone != nil && s.smsSender != nil {
		return s.smsSender.SendSMS(ctx, *req.Phone, "Your NeedCart signup code: "+code)
	}
	return s.mailer.SendEmail(email, "Confirm your NeedCart signup", "Your code: "+code)
}

func (s *service) Verify(ctx context.Context, req domain.VerifySignupRequest) (*domain.User, string, error) {
	email := normalizeEmail(req.Email)

	// Consume is an atomic match-and-delete; the cutoff makes a record older
	// than the TTL fail even when the storage reaper has not fired yet.
	cutoff := time.Now().Add(-s.codeTTL).Unix()
	pending, err := s.signupRepo.Consume(ctx, email, req.Code, cutoff)
	if err != nil {
		return nil, "", err
	}
	if err := s.signupRepo.PurgeEmail(ctx, email); err != nil {
		slog.Warn("failed to purge outstanding signup codes", "email", email, "err", err)
	}

	switch pending.Role {
	case domain.RoleBuyer, domain.RoleSeller:
		// closed set, fall through to account creation
	default:
		return nil, "", fmt.Errorf("pending signup carries unknown role %q: %w", pending.Role, domain.ErrBadRequest)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: pending.PasswordHash,
		Role:         pending.Role,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, "", err
	}

	bearer, err := s.jwt.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newCode draws a 6-digit code from crypto/rand.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

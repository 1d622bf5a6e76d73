package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/needcart-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Login checks the password and issues a bearer token carrying the role.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	// Disable soft-deletes the account; a disabled account can no longer log in.
	Disable(ctx context.Context, userID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	repo userStore
	jwt  jwtSigner
}

func NewService(repo userStore, jwt jwtSigner) Service {
	return &service{repo: repo, jwt: jwt}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	// Emails are stored lowercased at signup, match them the same way.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.Enable != 1 {
		return nil, "", fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwt.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Disable(ctx context.Context, userID string) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{
		"enable":     0,
		"deleted_at": time.Now().UTC().Format(time.RFC3339),
	})
}

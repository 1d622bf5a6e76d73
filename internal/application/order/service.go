package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/needcart-api/internal/application/escrow"
	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, buyerID string, req domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string, limit int, cursor string) ([]domain.Order, string, error)
	// Complete marks the order completed and opens its escrow payout.
	Complete(ctx context.Context, orderID string) (*domain.EscrowPayout, error)
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string, limit int32, cursor string) ([]domain.Order, string, error)
	Complete(ctx context.Context, orderID string) error
}

type escrowOpener interface {
	Open(ctx context.Context, p escrow.OpenParams) (*domain.EscrowPayout, error)
	Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error)
}

type service struct {
	repo   orderStore
	escrow escrowOpener
}

func NewService(repo orderStore, escrowSvc escrowOpener) Service {
	return &service{repo: repo, escrow: escrowSvc}
}

func (s *service) Create(ctx context.Context, buyerID string, req domain.CreateOrderRequest) (*domain.Order, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("total amount must be positive: %w", domain.ErrInvalidAmount)
	}
	now := time.Now().UTC()
	o := &domain.Order{
		OrderID:     id.New(),
		BuyerID:     buyerID,
		SellerID:    req.SellerID,
		TotalAmount: req.TotalAmount,
		Status:      domain.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *service) ListBySeller(ctx context.Context, sellerID string, limit int, cursor string) ([]domain.Order, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListBySeller(ctx, sellerID, int32(limit), cursor)
}

// Complete is the order subsystem's "order completed, collect escrow" signal.
// It is idempotent: a completed order whose escrow write previously faulted
// must stay retryable, so a flip that reports the order already completed
// still proceeds to open the escrow. The escrow store's order_id constraint
// keeps the ledger row 1:1 no matter how many completions race or retry, and
// a duplicate open resolves to the existing record.
func (s *service) Complete(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Complete(ctx, orderID); err != nil && !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	p, err := s.escrow.Open(ctx, escrow.OpenParams{
		OrderID:     o.OrderID,
		SellerID:    o.SellerID,
		TotalAmount: o.TotalAmount,
	})
	if errors.Is(err, domain.ErrDuplicateEscrow) {
		return s.escrow.Get(ctx, orderID)
	}
	return p, err
}

package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/needcart-api/internal/domain"
)

// OpenParams carries the "order completed, collect escrow" signal.
// FeeOverride is a flat fee in minor units; when nil the service's
// basis-point rate is applied to the total.
type OpenParams struct {
	OrderID     string
	SellerID    string
	TotalAmount int64
	FeeOverride *int64
}

type Service interface {
	Open(ctx context.Context, p OpenParams) (*domain.EscrowPayout, error)
	Release(ctx context.Context, orderID string) (*domain.EscrowPayout, error)
	Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.EscrowPayout, string, error)
}

type escrowStore interface {
	Create(ctx context.Context, p *domain.EscrowPayout) error
	Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error)
	Release(ctx context.Context, orderID string, releasedAt time.Time) (*domain.EscrowPayout, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.EscrowPayout, string, error)
}

type disbursementPublisher interface {
	Authorize(ctx context.Context, orderID, sellerID string, netAmount int64) error
}

type auditStore interface {
	PutRecord(ctx context.Context, orderID, event string, v interface{}) error
}

type service struct {
	repo      escrowStore
	publisher disbursementPublisher
	audit     auditStore
	feeBps    int
}

type ServiceDeps struct {
	EscrowRepo escrowStore
	Publisher  disbursementPublisher
	Audit      auditStore
	FeeBps     int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.EscrowRepo,
		publisher: deps.Publisher,
		audit:     deps.Audit,
		feeBps:    deps.FeeBps,
	}
}

// Open books the held record for an order. The fee is either the flat
// override or total*bps/10000 with integer truncation, so the same inputs
// always produce the same fee. NetAmount is derived here and nowhere else;
// the record is immutable apart from the release transition.
func (s *service) Open(ctx context.Context, p OpenParams) (*domain.EscrowPayout, error) {
	if p.TotalAmount <= 0 {
		return nil, fmt.Errorf("total amount must be positive, got %d: %w", p.TotalAmount, domain.ErrInvalidAmount)
	}
	fee := s.platformFee(p.TotalAmount, p.FeeOverride)
	if fee < 0 || fee > p.TotalAmount {
		return nil, fmt.Errorf("fee %d out of range for total %d: %w", fee, p.TotalAmount, domain.ErrInvalidFee)
	}
	// fee_bps records how the fee was derived; a flat override is not
	// rate-derived, so the record carries 0 instead of the service rate.
	feeBps := s.feeBps
	if p.FeeOverride != nil {
		feeBps = 0
	}

	payout := &domain.EscrowPayout{
		OrderID:      p.OrderID,
		SellerID:     p.SellerID,
		TotalAmount:  p.TotalAmount,
		PlatformFee:  fee,
		NetAmount:    p.TotalAmount - fee,
		FeeBps:       feeBps,
		EscrowStatus: domain.EscrowHeld,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, payout); err != nil {
		return nil, err
	}
	if err := s.audit.PutRecord(ctx, payout.OrderID, "opened", payout); err != nil {
		slog.Warn("failed to write escrow audit record", "order_id", payout.OrderID, "event", "opened", "err", err)
	}
	return payout, nil
}

// Release performs the held → released transition and authorizes the
// disbursement of the net amount. The repo transition is a compare-and-set,
// so exactly one of any number of concurrent callers reaches the Authorize
// call; releasing an already-released payout fails with ErrAlreadyReleased.
// Authorize itself is deduplicated by order ID downstream, so a retry after
// a publish failure cannot double-pay the seller.
func (s *service) Release(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	if s.publisher == nil {
		return nil, fmt.Errorf("disbursement publisher not configured, refusing to release order %s", orderID)
	}
	payout, err := s.repo.Release(ctx, orderID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Authorize(ctx, payout.OrderID, payout.SellerID, payout.NetAmount); err != nil {
		slog.Error("escrow released but disbursement authorization failed", "order_id", orderID, "err", err)
		return nil, fmt.Errorf("disbursement authorization for order %s: %w", orderID, err)
	}
	if err := s.audit.PutRecord(ctx, payout.OrderID, "released", payout); err != nil {
		slog.Warn("failed to write escrow audit record", "order_id", orderID, "event", "released", "err", err)
	}
	return payout, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.EscrowPayout, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) platformFee(total int64, override *int64) int64 {
	if override != nil {
		return *override
	}
	return total * int64(s.feeBps) / 10000
}

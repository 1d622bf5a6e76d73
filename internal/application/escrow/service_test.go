package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/needcart-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockEscrowStore struct{ mock.Mock }

func (m *mockEscrowStore) Create(ctx context.Context, p *domain.EscrowPayout) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockEscrowStore) Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	args := m.Called(ctx, orderID)
	if p, _ := args.Get(0).(*domain.EscrowPayout); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEscrowStore) Release(ctx context.Context, orderID string, releasedAt time.Time) (*domain.EscrowPayout, error) {
	args := m.Called(ctx, orderID, releasedAt)
	if p, _ := args.Get(0).(*domain.EscrowPayout); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEscrowStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.EscrowPayout, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.EscrowPayout), args.String(1), args.Error(2)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Authorize(ctx context.Context, orderID, sellerID string, netAmount int64) error {
	return m.Called(ctx, orderID, sellerID, netAmount).Error(0)
}

type mockAuditStore struct{ mock.Mock }

func (m *mockAuditStore) PutRecord(ctx context.Context, orderID, event string, v interface{}) error {
	return m.Called(ctx, orderID, event, v).Error(0)
}

// --- builder ---

func newService(es *mockEscrowStore, pub *mockPublisher, audit *mockAuditStore, feeBps int) Service {
	return NewService(ServiceDeps{
		EscrowRepo: es,
		Publisher:  pub,
		Audit:      audit,
		FeeBps:     feeBps,
	})
}

func int64Ptr(n int64) *int64 { return &n }

// --- Open ---

func TestOpen_ComputesFeeFromBps(t *testing.T) {
	es := &mockEscrowStore{}
	audit := &mockAuditStore{}
	es.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.EscrowPayout) bool {
		return p.TotalAmount == 10000 && p.PlatformFee == 1500 && p.NetAmount == 8500 &&
			p.FeeBps == 1500 && p.EscrowStatus == domain.EscrowHeld && p.ReleasedAt == nil
	})).Return(nil)
	audit.On("PutRecord", mock.Anything, "o1", "opened", mock.Anything).Return(nil)

	svc := newService(es, nil, audit, 1500)
	p, err := svc.Open(context.Background(), OpenParams{OrderID: "o1", SellerID: "s1", TotalAmount: 10000})

	require.NoError(t, err)
	assert.Equal(t, int64(8500), p.NetAmount)
	assert.Equal(t, p.TotalAmount-p.PlatformFee, p.NetAmount)
	es.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestOpen_FlatFeeOverride(t *testing.T) {
	es := &mockEscrowStore{}
	audit := &mockAuditStore{}
	es.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.EscrowPayout) bool {
		return p.PlatformFee == 1500 && p.NetAmount == 8500
	})).Return(nil)
	audit.On("PutRecord", mock.Anything, "o1", "opened", mock.Anything).Return(nil)

	svc := newService(es, nil, audit, 2000)
	p, err := svc.Open(context.Background(), OpenParams{
		OrderID: "o1", SellerID: "s1", TotalAmount: 10000, FeeOverride: int64Ptr(1500),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(8500), p.NetAmount)
	// A flat fee is not rate-derived, so the record must not claim the
	// service rate as its basis.
	assert.Equal(t, 0, p.FeeBps)
}

func TestOpen_ZeroAmount_InvalidAmount(t *testing.T) {
	svc := newService(nil, nil, nil, 1500)
	_, err := svc.Open(context.Background(), OpenParams{OrderID: "o1", TotalAmount: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestOpen_NegativeAmount_InvalidAmount(t *testing.T) {
	svc := newService(nil, nil, nil, 1500)
	_, err := svc.Open(context.Background(), OpenParams{OrderID: "o1", TotalAmount: -500})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestOpen_FeeExceedsTotal_InvalidFee(t *testing.T) {
	svc := newService(nil, nil, nil, 1500)
	_, err := svc.Open(context.Background(), OpenParams{
		OrderID: "o1", TotalAmount: 10000, FeeOverride: int64Ptr(15000),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidFee))
}

func TestOpen_NegativeFee_InvalidFee(t *testing.T) {
	svc := newService(nil, nil, nil, 1500)
	_, err := svc.Open(context.Background(), OpenParams{
		OrderID: "o1", TotalAmount: 10000, FeeOverride: int64Ptr(-1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidFee))
}

func TestOpen_FeeEqualToTotal_Allowed(t *testing.T) {
	es := &mockEscrowStore{}
	audit := &mockAuditStore{}
	es.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.EscrowPayout) bool {
		return p.PlatformFee == 10000 && p.NetAmount == 0
	})).Return(nil)
	audit.On("PutRecord", mock.Anything, "o1", "opened", mock.Anything).Return(nil)

	svc := newService(es, nil, audit, 0)
	p, err := svc.Open(context.Background(), OpenParams{
		OrderID: "o1", TotalAmount: 10000, FeeOverride: int64Ptr(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.NetAmount)
}

func TestOpen_DuplicateOrder_Propagates(t *testing.T) {
	es := &mockEscrowStore{}
	es.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEscrow)

	svc := newService(es, nil, nil, 1500)
	_, err := svc.Open(context.Background(), OpenParams{OrderID: "o1", TotalAmount: 10000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateEscrow))
}

func TestOpen_AuditFailure_DoesNotFailOpen(t *testing.T) {
	es := &mockEscrowStore{}
	audit := &mockAuditStore{}
	es.On("Create", mock.Anything, mock.Anything).Return(nil)
	audit.On("PutRecord", mock.Anything, "o1", "opened", mock.Anything).Return(errors.New("s3 down"))

	svc := newService(es, nil, audit, 1500)
	_, err := svc.Open(context.Background(), OpenParams{OrderID: "o1", TotalAmount: 10000})
	require.NoError(t, err)
}

// --- Release ---

func TestRelease_HappyPath_AuthorizesDisbursementOnce(t *testing.T) {
	es := &mockEscrowStore{}
	pub := &mockPublisher{}
	audit := &mockAuditStore{}

	releasedAt := time.Now().UTC()
	released := &domain.EscrowPayout{
		OrderID: "o1", SellerID: "s1", TotalAmount: 10000, PlatformFee: 1500, NetAmount: 8500,
		EscrowStatus: domain.EscrowReleased, ReleasedAt: &releasedAt,
	}
	es.On("Release", mock.Anything, "o1", mock.AnythingOfType("time.Time")).Return(released, nil)
	pub.On("Authorize", mock.Anything, "o1", "s1", int64(8500)).Return(nil).Once()
	audit.On("PutRecord", mock.Anything, "o1", "released", mock.Anything).Return(nil)

	svc := newService(es, pub, audit, 1500)
	p, err := svc.Release(context.Background(), "o1")

	require.NoError(t, err)
	assert.Equal(t, domain.EscrowReleased, p.EscrowStatus)
	require.NotNil(t, p.ReleasedAt)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Authorize", 1)
}

func TestRelease_NotFound(t *testing.T) {
	es := &mockEscrowStore{}
	es.On("Release", mock.Anything, "missing", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newService(es, nil, nil, 1500)
	_, err := svc.Release(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRelease_AlreadyReleased_NoSecondDisbursement(t *testing.T) {
	es := &mockEscrowStore{}
	pub := &mockPublisher{}
	es.On("Release", mock.Anything, "o1", mock.Anything).Return(nil, domain.ErrAlreadyReleased)

	svc := newService(es, pub, nil, 1500)
	_, err := svc.Release(context.Background(), "o1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyReleased))
	pub.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRelease_PublishFailure_SurfacesError(t *testing.T) {
	es := &mockEscrowStore{}
	pub := &mockPublisher{}
	releasedAt := time.Now().UTC()
	released := &domain.EscrowPayout{
		OrderID: "o1", SellerID: "s1", NetAmount: 8500,
		EscrowStatus: domain.EscrowReleased, ReleasedAt: &releasedAt,
	}
	es.On("Release", mock.Anything, "o1", mock.Anything).Return(released, nil)
	pub.On("Authorize", mock.Anything, "o1", "s1", int64(8500)).Return(errors.New("sns unavailable"))

	svc := newService(es, pub, nil, 1500)
	_, err := svc.Release(context.Background(), "o1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disbursement authorization")
}

// --- List ---

func TestList_DefaultsLimit(t *testing.T) {
	es := &mockEscrowStore{}
	es.On("ScanPage", mock.Anything, int32(50), "").Return([]domain.EscrowPayout{}, "", nil)

	svc := newService(es, nil, nil, 1500)
	_, _, err := svc.List(context.Background(), 0, "")
	require.NoError(t, err)
	es.AssertExpectations(t)
}

package order

import (
	"context"
	"errors"
	"testing"

	"github.com/needcart-api/internal/application/escrow"
	"github.com/needcart-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) Put(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockOrderStore) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOrderStore) ListBySeller(ctx context.Context, sellerID string, limit int32, cursor string) ([]domain.Order, string, error) {
	args := m.Called(ctx, sellerID, limit, cursor)
	return args.Get(0).([]domain.Order), args.String(1), args.Error(2)
}
func (m *mockOrderStore) Complete(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

type mockEscrowOpener struct{ mock.Mock }

func (m *mockEscrowOpener) Open(ctx context.Context, p escrow.OpenParams) (*domain.EscrowPayout, error) {
	args := m.Called(ctx, p)
	if e, _ := args.Get(0).(*domain.EscrowPayout); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEscrowOpener) Get(ctx context.Context, orderID string) (*domain.EscrowPayout, error) {
	args := m.Called(ctx, orderID)
	if e, _ := args.Get(0).(*domain.EscrowPayout); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Create ---

func TestCreate_HappyPath(t *testing.T) {
	os := &mockOrderStore{}
	os.On("Put", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.BuyerID == "b1" && o.SellerID == "s1" && o.TotalAmount == 10000 &&
			o.Status == domain.OrderPending && o.OrderID != ""
	})).Return(nil)

	svc := NewService(os, nil)
	o, err := svc.Create(context.Background(), "b1", domain.CreateOrderRequest{
		SellerID: "s1", TotalAmount: 10000,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	os.AssertExpectations(t)
}

func TestCreate_NonPositiveAmount(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Create(context.Background(), "b1", domain.CreateOrderRequest{
		SellerID: "s1", TotalAmount: 0,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

// --- ListBySeller ---

func TestListBySeller_DefaultsLimit(t *testing.T) {
	os := &mockOrderStore{}
	os.On("ListBySeller", mock.Anything, "s1", int32(50), "").Return([]domain.Order{}, "", nil)

	svc := NewService(os, nil)
	_, _, err := svc.ListBySeller(context.Background(), "s1", 0, "")
	require.NoError(t, err)
	os.AssertExpectations(t)
}

// --- Complete ---

func TestComplete_OpensEscrowWithOrderAmounts(t *testing.T) {
	os := &mockOrderStore{}
	eo := &mockEscrowOpener{}

	o := &domain.Order{OrderID: "o1", BuyerID: "b1", SellerID: "s1", TotalAmount: 10000, Status: domain.OrderPending}
	os.On("Get", mock.Anything, "o1").Return(o, nil)
	os.On("Complete", mock.Anything, "o1").Return(nil)
	eo.On("Open", mock.Anything, escrow.OpenParams{
		OrderID: "o1", SellerID: "s1", TotalAmount: 10000,
	}).Return(&domain.EscrowPayout{OrderID: "o1", EscrowStatus: domain.EscrowHeld}, nil)

	svc := NewService(os, eo)
	p, err := svc.Complete(context.Background(), "o1")

	require.NoError(t, err)
	assert.Equal(t, domain.EscrowHeld, p.EscrowStatus)
	eo.AssertExpectations(t)
}

func TestComplete_OrderNotFound(t *testing.T) {
	os := &mockOrderStore{}
	os.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := NewService(os, nil)
	_, err := svc.Complete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestComplete_RetryAfterEscrowFault_OpensEscrow(t *testing.T) {
	os := &mockOrderStore{}
	eo := &mockEscrowOpener{}

	o := &domain.Order{OrderID: "o1", SellerID: "s1", TotalAmount: 10000, Status: domain.OrderPending}
	os.On("Get", mock.Anything, "o1").Return(o, nil)
	// First call wins the flip; the retry finds the order already completed.
	os.On("Complete", mock.Anything, "o1").Return(nil).Once()
	os.On("Complete", mock.Anything, "o1").Return(domain.ErrConflict)
	// The escrow store faults on the first open and recovers on the retry.
	eo.On("Open", mock.Anything, mock.Anything).Return(nil, errors.New("store unavailable")).Once()
	eo.On("Open", mock.Anything, escrow.OpenParams{
		OrderID: "o1", SellerID: "s1", TotalAmount: 10000,
	}).Return(&domain.EscrowPayout{OrderID: "o1", EscrowStatus: domain.EscrowHeld}, nil)

	svc := NewService(os, eo)
	_, err := svc.Complete(context.Background(), "o1")
	require.Error(t, err)

	p, err := svc.Complete(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowHeld, p.EscrowStatus)
	eo.AssertNumberOfCalls(t, "Open", 2)
}

func TestComplete_AlreadyCompletedWithEscrow_ReturnsExisting(t *testing.T) {
	os := &mockOrderStore{}
	eo := &mockEscrowOpener{}

	o := &domain.Order{OrderID: "o1", SellerID: "s1", TotalAmount: 10000, Status: domain.OrderCompleted}
	os.On("Get", mock.Anything, "o1").Return(o, nil)
	os.On("Complete", mock.Anything, "o1").Return(domain.ErrConflict)
	eo.On("Open", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateEscrow)
	existing := &domain.EscrowPayout{OrderID: "o1", NetAmount: 8500, EscrowStatus: domain.EscrowHeld}
	eo.On("Get", mock.Anything, "o1").Return(existing, nil)

	svc := NewService(os, eo)
	p, err := svc.Complete(context.Background(), "o1")

	require.NoError(t, err)
	assert.Equal(t, existing, p)
}

func TestComplete_StoreFaultOnFlip_Propagates(t *testing.T) {
	os := &mockOrderStore{}
	eo := &mockEscrowOpener{}

	o := &domain.Order{OrderID: "o1", SellerID: "s1", TotalAmount: 10000, Status: domain.OrderPending}
	os.On("Get", mock.Anything, "o1").Return(o, nil)
	os.On("Complete", mock.Anything, "o1").Return(errors.New("dynamo down"))

	svc := NewService(os, eo)
	_, err := svc.Complete(context.Background(), "o1")

	require.Error(t, err)
	eo.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

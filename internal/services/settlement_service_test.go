package services

import (
	"context"
	"testing"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBuyerRepository struct {
	mock.Mock
}

func (m *MockBuyerRepository) GetByID(ctx context.Context, buyerID int64) (*model.Buyer, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) DebitBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, buyerID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBuyerRepository) CreditBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, buyerID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBuyerRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, productID int64) (*model.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) ReserveStock(ctx context.Context, productID int64, quantity int64) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) ReleaseStock(ctx context.Context, productID int64, quantity int64) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

// Create echoes the input order (after any Run hook mutated it) unless
// an explicit return value or error was configured.
func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if args.Get(0) == nil {
		return order, nil
	}
	return args.Get(0).(*model.Order), nil
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumberForUpdate(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus bool) error {
	args := m.Called(ctx, orderID, status, paymentStatus)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *model.CreditTransaction) (*model.CreditTransaction, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockLedgerRepository) ListByBuyer(ctx context.Context, buyerID int64, limit int) ([]*model.CreditTransaction, error) {
	args := m.Called(ctx, buyerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CreditTransaction), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CompleteByOrder(ctx context.Context, orderID int64, status model.TransactionStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func amountEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func testBuyer() *model.Buyer {
	return &model.Buyer{
		ID:             1,
		Name:           "Acme Traders",
		BusinessName:   "Acme Traders Pvt Ltd",
		GSTIN:          "22AAAAA0000A1Z5",
		CreditBalance:  dec("1000.00"),
		ApprovalStatus: model.ApprovalApproved,
		Verified:       true,
	}
}

func testProduct() *model.Product {
	return &model.Product{
		ID:                   7,
		SellerID:             3,
		Name:                 "Copper Wire Spool",
		MRP:                  dec("30.00"),
		SellingPrice:         dec("25.00"),
		GSTRate:              12,
		StockQuantity:        100,
		MinimumOrderQuantity: 1,
		ApprovalStatus:       model.ApprovalApproved,
		IsActive:             true,
	}
}

func newTestService() (*SettlementService, *MockBuyerRepository, *MockProductRepository, *MockOrderRepository, *MockLedgerRepository, *MockTransactionRepository) {
	buyerRepo := new(MockBuyerRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	ledgerRepo := new(MockLedgerRepository)
	txnRepo := new(MockTransactionRepository)
	svc := NewSettlementService(buyerRepo, productRepo, orderRepo, ledgerRepo, txnRepo, nil)
	return svc, buyerRepo, productRepo, orderRepo, ledgerRepo, txnRepo
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice string
		gstRate   int
		quantity  int64
		subtotal  string
		gst       string
		total     string
	}{
		{"standard rate", "25.00", 12, 10, "250.00", "30.00", "280.00"},
		{"zero rate", "99.99", 0, 3, "299.97", "0", "299.97"},
		{"rounding half up", "33.33", 18, 1, "33.33", "6.00", "39.33"},
		{"fractional gst", "10.01", 5, 3, "30.03", "1.50", "31.53"},
		{"highest slab", "1000.00", 28, 2, "2000.00", "560.00", "2560.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, gst, total := ComputeTotals(dec(tt.unitPrice), tt.gstRate, tt.quantity)
			assert.True(t, subtotal.Equal(dec(tt.subtotal)), "subtotal: got %s", subtotal)
			assert.True(t, gst.Equal(dec(tt.gst)), "gst: got %s", gst)
			assert.True(t, total.Equal(dec(tt.total)), "total: got %s", total)
		})
	}
}

func TestSettlementService_PlaceOrder_CreditPayment(t *testing.T) {
	svc, buyerRepo, productRepo, orderRepo, ledgerRepo, txnRepo := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(testProduct(), nil)
	buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	productRepo.On("ReserveStock", ctx, int64(7), int64(10)).Return(nil)
	buyerRepo.On("DebitBalance", ctx, int64(1), amountEq("280.00")).Return(dec("720.00"), nil)

	orderRepo.On("Create", ctx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*model.Order)
			order.ID = 42
			for i := range order.Items {
				order.Items[i].OrderID = 42
			}
		}).
		Return(nil, nil)

	ledgerRepo.On("Append", ctx, mock.MatchedBy(func(e *model.CreditTransaction) bool {
		return e.BuyerID == 1 &&
			e.Type == model.CreditEntryDebit &&
			e.Amount.Equal(dec("280.00")) &&
			e.BalanceAfter.Equal(dec("720.00"))
	})).Return(&model.CreditTransaction{ID: 1}, nil)

	txnRepo.On("Create", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TransactionPurchase &&
			txn.Status == model.TransactionStatusCompleted &&
			txn.Amount.Equal(dec("280.00"))
	})).Return(&model.Transaction{ID: 1}, nil)

	order, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        10,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.True(t, order.Subtotal.Equal(dec("250.00")))
	assert.True(t, order.GSTAmount.Equal(dec("30.00")))
	assert.True(t, order.TotalAmount.Equal(dec("280.00")))
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.True(t, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(dec("25.00")))
	assert.Equal(t, 12, order.Items[0].GSTRate)

	buyerRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
	txnRepo.AssertExpectations(t)
}

func TestSettlementService_PlaceOrder_OnlinePayment_StaysPending(t *testing.T) {
	svc, buyerRepo, productRepo, orderRepo, _, txnRepo := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(testProduct(), nil)
	buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	productRepo.On("ReserveStock", ctx, int64(7), int64(4)).Return(nil)

	orderRepo.On("Create", ctx, mock.AnythingOfType("*model.Order")).Return(nil, nil)

	txnRepo.On("Create", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.TransactionPurchase &&
			txn.Status == model.TransactionStatusPending
	})).Return(&model.Transaction{ID: 1}, nil)

	order, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        4,
		PaymentMethod:   model.PaymentMethodOnline,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.False(t, order.PaymentStatus)

	buyerRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
	txnRepo.AssertExpectations(t)
}

func TestSettlementService_PlaceOrder_InsufficientFunds(t *testing.T) {
	svc, buyerRepo, productRepo, orderRepo, ledgerRepo, _ := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(testProduct(), nil)
	buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	productRepo.On("ReserveStock", ctx, int64(7), int64(50)).Return(nil)
	buyerRepo.On("DebitBalance", ctx, int64(1), mock.AnythingOfType("decimal.Decimal")).
		Return(decimal.Zero, repository.ErrInsufficientBalance)

	order, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        50,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, order)

	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSettlementService_PlaceOrder_OutOfStockInTransaction(t *testing.T) {
	svc, buyerRepo, productRepo, orderRepo, _, _ := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(testProduct(), nil)
	buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	productRepo.On("ReserveStock", ctx, int64(7), int64(10)).Return(repository.ErrOutOfStock)

	order, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        10,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Nil(t, order)

	buyerRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementService_PlaceOrder_StockPrecheck(t *testing.T) {
	svc, buyerRepo, productRepo, _, _, _ := newTestService()
	ctx := context.Background()

	product := testProduct()
	product.StockQuantity = 5

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(product, nil)

	_, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        6,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrOutOfStock)

	buyerRepo.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
}

func TestSettlementService_PlaceOrder_BelowMinimumQuantity(t *testing.T) {
	svc, buyerRepo, productRepo, _, _, _ := newTestService()
	ctx := context.Background()

	product := testProduct()
	product.MinimumOrderQuantity = 5

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(product, nil)

	_, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        3,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSettlementService_PlaceOrder_ProductUnavailable(t *testing.T) {
	svc, buyerRepo, productRepo, _, _, _ := newTestService()
	ctx := context.Background()

	product := testProduct()
	product.IsActive = false

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(product, nil)

	_, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        1,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestSettlementService_PlaceOrder_BuyerNotFound(t *testing.T) {
	svc, buyerRepo, _, _, _, _ := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrBuyerNotFound)

	_, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         99,
		ProductID:       7,
		Quantity:        1,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettlementService_PlaceOrder_InvalidRequest(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()

	_, err := svc.PlaceOrder(context.Background(), model.PlaceOrderRequest{
		BuyerID:       1,
		ProductID:     7,
		Quantity:      0,
		PaymentMethod: model.PaymentMethodCredit,
	})
	assert.Error(t, err)
}

func TestSettlementService_PlaceOrder_StorageConflict(t *testing.T) {
	svc, buyerRepo, productRepo, _, _, _ := newTestService()
	ctx := context.Background()

	buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
	productRepo.On("GetByID", ctx, int64(7)).Return(testProduct(), nil)
	buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	productRepo.On("ReserveStock", ctx, int64(7), int64(2)).Return(repository.ErrMaxRetriesExceeded)

	_, err := svc.PlaceOrder(ctx, model.PlaceOrderRequest{
		BuyerID:         1,
		ProductID:       7,
		Quantity:        2,
		PaymentMethod:   model.PaymentMethodCredit,
		ShippingAddress: "12 Industrial Estate, Pune",
	})
	assert.ErrorIs(t, err, ErrStorageConflict)
}

func TestSettlementService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a pending online order", func(t *testing.T) {
		svc, buyerRepo, _, orderRepo, _, txnRepo := newTestService()

		pending := &model.Order{
			ID:            42,
			OrderNumber:   "ORD3F2A91BC",
			BuyerID:       1,
			SellerID:      3,
			TotalAmount:   dec("280.00"),
			Status:        model.OrderStatusPending,
			PaymentMethod: model.PaymentMethodOnline,
		}

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORD3F2A91BC").Return(pending, nil)
		orderRepo.On("UpdateStatus", ctx, int64(42), model.OrderStatusConfirmed, true).Return(nil)
		txnRepo.On("CompleteByOrder", ctx, int64(42), model.TransactionStatusCompleted).Return(nil)

		order, err := svc.ConfirmPayment(ctx, "ORD3F2A91BC", "pay_XYZ123")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusConfirmed, order.Status)
		assert.True(t, order.PaymentStatus)

		orderRepo.AssertExpectations(t)
		txnRepo.AssertExpectations(t)
	})

	t.Run("rejects a second settlement", func(t *testing.T) {
		svc, buyerRepo, _, orderRepo, _, _ := newTestService()

		paid := &model.Order{
			ID:            42,
			OrderNumber:   "ORD3F2A91BC",
			Status:        model.OrderStatusConfirmed,
			PaymentStatus: true,
		}

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORD3F2A91BC").Return(paid, nil)

		_, err := svc.ConfirmPayment(ctx, "ORD3F2A91BC", "pay_XYZ123")
		assert.ErrorIs(t, err, ErrAlreadyPaid)

		orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, buyerRepo, _, orderRepo, _, _ := newTestService()

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORDDEADBEEF").Return(nil, repository.ErrOrderNotFound)

		_, err := svc.ConfirmPayment(ctx, "ORDDEADBEEF", "pay_XYZ123")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSettlementService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	creditPaidOrder := func() *model.Order {
		return &model.Order{
			ID:            42,
			OrderNumber:   "ORD3F2A91BC",
			BuyerID:       1,
			SellerID:      3,
			TotalAmount:   dec("280.00"),
			Status:        model.OrderStatusConfirmed,
			PaymentMethod: model.PaymentMethodCredit,
			PaymentStatus: true,
			Items: []model.OrderItem{
				{ProductID: 7, Quantity: 10, UnitPrice: dec("25.00"), GSTRate: 12},
			},
		}
	}

	t.Run("refunds a credit-paid order", func(t *testing.T) {
		svc, buyerRepo, productRepo, orderRepo, ledgerRepo, txnRepo := newTestService()

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORD3F2A91BC").Return(creditPaidOrder(), nil)
		productRepo.On("ReleaseStock", ctx, int64(7), int64(10)).Return(nil)
		buyerRepo.On("CreditBalance", ctx, int64(1), amountEq("280.00")).Return(dec("1000.00"), nil)

		ledgerRepo.On("Append", ctx, mock.MatchedBy(func(e *model.CreditTransaction) bool {
			return e.Type == model.CreditEntryCredit &&
				e.Amount.Equal(dec("280.00")) &&
				e.BalanceAfter.Equal(dec("1000.00")) &&
				e.Reference == "ORD3F2A91BC"
		})).Return(&model.CreditTransaction{ID: 2}, nil)

		txnRepo.On("Create", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
			return txn.Type == model.TransactionRefund &&
				txn.Status == model.TransactionStatusCompleted
		})).Return(&model.Transaction{ID: 2}, nil)

		orderRepo.On("UpdateStatus", ctx, int64(42), model.OrderStatusCancelled, false).Return(nil)
		txnRepo.On("CompleteByOrder", ctx, int64(42), model.TransactionStatusCancelled).Return(nil)

		order, err := svc.CancelOrder(ctx, "ORD3F2A91BC")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, order.Status)
		assert.False(t, order.PaymentStatus)

		productRepo.AssertExpectations(t)
		ledgerRepo.AssertExpectations(t)
		txnRepo.AssertExpectations(t)
	})

	t.Run("unpaid order restocks without a refund", func(t *testing.T) {
		svc, buyerRepo, productRepo, orderRepo, ledgerRepo, txnRepo := newTestService()

		unpaid := creditPaidOrder()
		unpaid.Status = model.OrderStatusPending
		unpaid.PaymentMethod = model.PaymentMethodOnline
		unpaid.PaymentStatus = false

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORD3F2A91BC").Return(unpaid, nil)
		productRepo.On("ReleaseStock", ctx, int64(7), int64(10)).Return(nil)
		orderRepo.On("UpdateStatus", ctx, int64(42), model.OrderStatusCancelled, false).Return(nil)
		txnRepo.On("CompleteByOrder", ctx, int64(42), model.TransactionStatusCancelled).Return(nil)

		_, err := svc.CancelOrder(ctx, "ORD3F2A91BC")
		require.NoError(t, err)

		buyerRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
		ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		svc, buyerRepo, productRepo, orderRepo, _, _ := newTestService()

		delivered := creditPaidOrder()
		delivered.Status = model.OrderStatusDelivered

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		orderRepo.On("GetByNumberForUpdate", ctx, "ORD3F2A91BC").Return(delivered, nil)

		_, err := svc.CancelOrder(ctx, "ORD3F2A91BC")
		assert.ErrorIs(t, err, ErrNotCancellable)

		productRepo.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettlementService_GetOrder(t *testing.T) {
	svc, _, _, orderRepo, _, _ := newTestService()
	ctx := context.Background()

	orderRepo.On("GetByNumber", ctx, "ORDDEADBEEF").Return(nil, repository.ErrOrderNotFound)

	_, err := svc.GetOrder(ctx, "ORDDEADBEEF")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettlementService_ListOrders(t *testing.T) {
	svc, _, _, orderRepo, _, _ := newTestService()
	ctx := context.Background()

	buyerID := int64(1)
	filter := model.OrderFilter{BuyerID: &buyerID, Limit: 10}
	expected := []*model.Order{{ID: 1}, {ID: 2}}

	orderRepo.On("List", ctx, filter).Return(expected, int64(2), nil)

	orders, total, err := svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)
}

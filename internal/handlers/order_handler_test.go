package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/services"
	xhttp "github.com/samirbha/settlement-gateway/pkg/http"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, orderNumber string, gatewayRef string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber, gatewayRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	t.Run("successful order placement", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		reqBody := placeOrderRequest{
			BuyerID:         1,
			ProductID:       7,
			Quantity:        10,
			PaymentMethod:   "credit",
			ShippingAddress: "12 Industrial Estate, Pune",
		}
		bodyBytes, _ := json.Marshal(reqBody)

		expected := &model.Order{
			ID:            42,
			OrderNumber:   "ORD3F2A91BC",
			BuyerID:       1,
			SellerID:      3,
			Subtotal:      dec("250.00"),
			GSTAmount:     dec("30.00"),
			TotalAmount:   dec("280.00"),
			Status:        model.OrderStatusConfirmed,
			PaymentMethod: model.PaymentMethodCredit,
			PaymentStatus: true,
		}

		svc.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(p model.PlaceOrderRequest) bool {
			return p.BuyerID == 1 && p.ProductID == 7 && p.Quantity == 10 &&
				p.PaymentMethod == model.PaymentMethodCredit
		})).Return(expected, nil)

		ctx := setupTestContext("POST", "/orders", bodyBytes)
		handler.PlaceOrder(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response model.Order
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, "ORD3F2A91BC", response.OrderNumber)
		assert.Equal(t, model.OrderStatusConfirmed, response.Status)
		assert.True(t, response.TotalAmount.Equal(dec("280.00")))

		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("POST", "/orders", []byte("invalid json"))
		handler.PlaceOrder(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())

		var response map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Contains(t, response["error"], "invalid JSON")
	})

	t.Run("insufficient funds maps to 402", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		bodyBytes, _ := json.Marshal(placeOrderRequest{
			BuyerID: 1, ProductID: 7, Quantity: 10,
			PaymentMethod: "credit", ShippingAddress: "12 Industrial Estate, Pune",
		})

		svc.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, services.ErrInsufficientFunds)

		ctx := setupTestContext("POST", "/orders", bodyBytes)
		handler.PlaceOrder(ctx)

		assert.Equal(t, 402, ctx.Response.StatusCode())
	})

	t.Run("out of stock maps to 409", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		bodyBytes, _ := json.Marshal(placeOrderRequest{
			BuyerID: 1, ProductID: 7, Quantity: 999,
			PaymentMethod: "credit", ShippingAddress: "12 Industrial Estate, Pune",
		})

		svc.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, services.ErrOutOfStock)

		ctx := setupTestContext("POST", "/orders", bodyBytes)
		handler.PlaceOrder(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("unavailable product maps to 422", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		bodyBytes, _ := json.Marshal(placeOrderRequest{
			BuyerID: 1, ProductID: 7, Quantity: 1,
			PaymentMethod: "credit", ShippingAddress: "12 Industrial Estate, Pune",
		})

		svc.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, services.ErrProductUnavailable)

		ctx := setupTestContext("POST", "/orders", bodyBytes)
		handler.PlaceOrder(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_ConfirmPayment(t *testing.T) {
	t.Run("successful confirmation", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		confirmed := &model.Order{
			ID:            42,
			OrderNumber:   "ORD3F2A91BC",
			Status:        model.OrderStatusConfirmed,
			PaymentStatus: true,
		}

		svc.On("ConfirmPayment", mock.Anything, "ORD3F2A91BC", "pay_XYZ123").Return(confirmed, nil)

		bodyBytes, _ := json.Marshal(confirmPaymentRequest{GatewayRef: "pay_XYZ123"})
		ctx := setupTestContext("POST", "/orders/ORD3F2A91BC/payment", bodyBytes)
		ctx.SetUserValue("number", "ORD3F2A91BC")
		handler.ConfirmPayment(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("already paid maps to 409", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("ConfirmPayment", mock.Anything, "ORD3F2A91BC", "").Return(nil, services.ErrAlreadyPaid)

		ctx := setupTestContext("POST", "/orders/ORD3F2A91BC/payment", nil)
		ctx.SetUserValue("number", "ORD3F2A91BC")
		handler.ConfirmPayment(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("missing order number", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("POST", "/orders//payment", nil)
		handler.ConfirmPayment(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("successful cancellation", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		cancelled := &model.Order{
			ID:          42,
			OrderNumber: "ORD3F2A91BC",
			Status:      model.OrderStatusCancelled,
		}

		svc.On("CancelOrder", mock.Anything, "ORD3F2A91BC").Return(cancelled, nil)

		ctx := setupTestContext("POST", "/orders/ORD3F2A91BC/cancel", nil)
		ctx.SetUserValue("number", "ORD3F2A91BC")
		handler.CancelOrder(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.Order
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, response.Status)
	})

	t.Run("delivered order maps to 409", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("CancelOrder", mock.Anything, "ORD3F2A91BC").Return(nil, services.ErrNotCancellable)

		ctx := setupTestContext("POST", "/orders/ORD3F2A91BC/cancel", nil)
		ctx.SetUserValue("number", "ORD3F2A91BC")
		handler.CancelOrder(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("GetOrder", mock.Anything, "ORD3F2A91BC").Return(&model.Order{
			ID:          42,
			OrderNumber: "ORD3F2A91BC",
		}, nil)

		ctx := setupTestContext("GET", "/orders/ORD3F2A91BC", nil)
		ctx.SetUserValue("number", "ORD3F2A91BC")
		handler.GetOrder(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("GetOrder", mock.Anything, "ORDDEADBEEF").Return(nil, services.ErrNotFound)

		ctx := setupTestContext("GET", "/orders/ORDDEADBEEF", nil)
		ctx.SetUserValue("number", "ORDDEADBEEF")
		handler.GetOrder(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("successful list with filters", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f model.OrderFilter) bool {
			return f.BuyerID != nil && *f.BuyerID == 1 &&
				len(f.Statuses) == 2 && f.Limit == 10 && f.Desc
		})).Return([]*model.Order{{ID: 1}, {ID: 2}}, int64(2), nil)

		ctx := setupTestContext("GET", "/orders?buyer_id=1&status=pending,confirmed&limit=10&order=desc", nil)
		handler.ListOrders(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response orderListResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(2), response.Total)
		assert.Len(t, response.Items, 2)

		svc.AssertExpectations(t)
	})
}

func TestOrderHandler_ListTransactions(t *testing.T) {
	t.Run("successful list", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("ListTransactions", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
			return f.BuyerID != nil && *f.BuyerID == 1 &&
				f.Type != nil && *f.Type == model.TransactionPurchase
		})).Return([]*model.Transaction{
			{ID: 1, TransactionID: "TXN8C04E19A2F", Type: model.TransactionPurchase},
		}, int64(1), nil)

		ctx := setupTestContext("GET", "/transactions?buyer_id=1&type=purchase", nil)
		handler.ListTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response transactionListResponse
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(1), response.Total)

		svc.AssertExpectations(t)
	})
}

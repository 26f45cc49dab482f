package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/repository"
	"github.com/samirbha/settlement-gateway/pkg/logger"
	"github.com/samirbha/settlement-gateway/pkg/prom"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient credit balance for this order")
	ErrOutOfStock         = errors.New("not enough stock to fulfil the order")
	ErrInvalidQuantity    = errors.New("quantity is below the minimum order quantity")
	ErrProductUnavailable = errors.New("product is inactive or not approved")
	ErrStorageConflict    = errors.New("concurrent write contention, retry the operation")
	ErrAlreadyPaid        = errors.New("order payment is already settled")
	ErrNotCancellable     = errors.New("order can no longer be cancelled")
	ErrNotFound           = errors.New("not found")
)

type BuyerRepository interface {
	GetByID(ctx context.Context, buyerID int64) (*model.Buyer, error)
	DebitBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error)
	CreditBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, productID int64) (*model.Product, error)
	ReserveStock(ctx context.Context, productID int64, quantity int64) error
	ReleaseStock(ctx context.Context, productID int64, quantity int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetByNumberForUpdate(ctx context.Context, orderNumber string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus bool) error
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
}

type LedgerRepository interface {
	Append(ctx context.Context, entry *model.CreditTransaction) (*model.CreditTransaction, error)
	ListByBuyer(ctx context.Context, buyerID int64, limit int) ([]*model.CreditTransaction, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	CompleteByOrder(ctx context.Context, orderID int64, status model.TransactionStatus) error
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

// EventPublisher pushes order events onto the stream consumed by the
// notifier. A nil publisher disables eventing.
type EventPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// SettlementService finalizes orders: it computes pricing, reserves
// stock, moves credit and writes the ledger and audit records as one
// atomic unit of work.
type SettlementService struct {
	buyerRepo   BuyerRepository
	productRepo ProductRepository
	orderRepo   OrderRepository
	ledgerRepo  LedgerRepository
	txnRepo     TransactionRepository
	events      EventPublisher
}

func NewSettlementService(
	buyerRepo BuyerRepository,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	ledgerRepo LedgerRepository,
	txnRepo TransactionRepository,
	events EventPublisher,
) *SettlementService {
	return &SettlementService{
		buyerRepo:   buyerRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		ledgerRepo:  ledgerRepo,
		txnRepo:     txnRepo,
		events:      events,
	}
}

// ComputeTotals derives order pricing from the snapshot values. GST is
// rounded to two decimal places, half up.
func ComputeTotals(unitPrice decimal.Decimal, gstRate int, quantity int64) (subtotal, gst, total decimal.Decimal) {
	subtotal = unitPrice.Mul(decimal.NewFromInt(quantity))
	gst = subtotal.Mul(decimal.NewFromInt(int64(gstRate))).Div(decimal.NewFromInt(100)).Round(2)
	total = subtotal.Add(gst)
	return subtotal, gst, total
}

// PlaceOrder places one order for a single product. All state changes
// commit together or not at all: stock decrement, order and item rows,
// credit debit with its ledger entry, and the audit transaction.
func (s *SettlementService) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.buyerRepo.GetByID(ctx, req.BuyerID); err != nil {
		if errors.Is(err, repository.ErrBuyerNotFound) {
			return nil, fmt.Errorf("%w: buyer %d", ErrNotFound, req.BuyerID)
		}
		return nil, fmt.Errorf("load buyer: %w", err)
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	if !product.Available() {
		return nil, ErrProductUnavailable
	}
	if req.Quantity < product.MinimumOrderQuantity {
		return nil, fmt.Errorf("%w: minimum is %d", ErrInvalidQuantity, product.MinimumOrderQuantity)
	}
	// Fail fast on an obviously empty shelf; the authoritative check
	// happens on the locked row inside the transaction.
	if req.Quantity > product.StockQuantity {
		return nil, ErrOutOfStock
	}

	subtotal, gst, total := ComputeTotals(product.SellingPrice, product.GSTRate, req.Quantity)

	order := &model.Order{
		OrderNumber:     model.NewOrderNumber(),
		BuyerID:         req.BuyerID,
		SellerID:        product.SellerID,
		Subtotal:        subtotal,
		GSTAmount:       gst,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   false,
		PODocumentRef:   req.PODocumentRef,
		ShippingAddress: req.ShippingAddress,
		Items: []model.OrderItem{
			{
				ProductID:  product.ID,
				Quantity:   req.Quantity,
				UnitPrice:  product.SellingPrice,
				GSTRate:    product.GSTRate,
				TotalPrice: subtotal,
			},
		},
	}

	start := time.Now()
	var placed *model.Order
	err = s.buyerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Reserve stock on the locked product row. This re-checks the
		// quantity so two concurrent buyers cannot both take the last unit.
		if err := s.productRepo.ReserveStock(ctx, product.ID, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrOutOfStock) {
				return ErrOutOfStock
			}
			return fmt.Errorf("reserve stock: %w", mapConflict(err))
		}

		// 2. For credit payment, debit the balance before writing anything
		// that references a settled payment.
		if req.PaymentMethod == model.PaymentMethodCredit {
			newBalance, err := s.buyerRepo.DebitBalance(ctx, req.BuyerID, total)
			if err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return ErrInsufficientFunds
				}
				return fmt.Errorf("debit balance: %w", mapConflict(err))
			}
			order.Status = model.OrderStatusConfirmed
			order.PaymentStatus = true

			created, err := s.orderRepo.Create(ctx, order)
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			placed = created

			if _, err := s.ledgerRepo.Append(ctx, &model.CreditTransaction{
				BuyerID:      req.BuyerID,
				Amount:       total,
				Type:         model.CreditEntryDebit,
				Reference:    order.OrderNumber,
				Description:  fmt.Sprintf("Purchase: %s", product.Name),
				BalanceAfter: newBalance,
			}); err != nil {
				return fmt.Errorf("append ledger entry: %w", err)
			}
		} else {
			created, err := s.orderRepo.Create(ctx, order)
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			placed = created
		}

		// 3. Audit record, completed only when payment already settled.
		txnStatus := model.TransactionStatusPending
		if placed.PaymentStatus {
			txnStatus = model.TransactionStatusCompleted
		}
		if _, err := s.txnRepo.Create(ctx, &model.Transaction{
			TransactionID: model.NewTransactionID(),
			BuyerID:       &placed.BuyerID,
			SellerID:      &placed.SellerID,
			OrderID:       &placed.ID,
			Type:          model.TransactionPurchase,
			Amount:        total,
			Status:        txnStatus,
			Description:   fmt.Sprintf("Purchase of %s", product.Name),
		}); err != nil {
			return fmt.Errorf("create transaction record: %w", err)
		}

		return nil
	})
	if err != nil {
		prom.IncOrderFailed(failureReason(err))
		return nil, err
	}

	prom.IncOrderPlaced(string(req.PaymentMethod))
	prom.ObserveSettlementDuration(time.Since(start).Seconds(), string(req.PaymentMethod))

	eventType := model.OrderEventPlaced
	if placed.PaymentStatus {
		eventType = model.OrderEventConfirmed
	}
	s.publishEvent(ctx, eventType, placed)

	return placed, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrStorageConflict):
		return "storage_conflict"
	}
	return "other"
}

// ConfirmPayment settles an online or purchase-order payment after the
// gateway callback or manual PO verification.
func (s *SettlementService) ConfirmPayment(ctx context.Context, orderNumber string, gatewayRef string) (*model.Order, error) {
	var confirmed *model.Order
	err := s.buyerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
			}
			return fmt.Errorf("load order: %w", err)
		}

		if order.PaymentStatus {
			return ErrAlreadyPaid
		}
		if order.Status == model.OrderStatusCancelled {
			return ErrNotCancellable
		}

		if err := s.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, true); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if err := s.txnRepo.CompleteByOrder(ctx, order.ID, model.TransactionStatusCompleted); err != nil &&
			!errors.Is(err, repository.ErrTransactionNotFound) {
			return fmt.Errorf("complete transaction record: %w", err)
		}

		order.Status = model.OrderStatusConfirmed
		order.PaymentStatus = true
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("payment confirmed", "order_number", orderNumber, "gateway_ref", gatewayRef)
	s.publishEvent(ctx, model.OrderEventConfirmed, confirmed)

	return confirmed, nil
}

// CancelOrder cancels a pre-delivery order, restores its stock and, if
// the order was paid from credit, refunds the buyer with a matching
// ledger entry and refund record.
func (s *SettlementService) CancelOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	var cancelled *model.Order
	err := s.buyerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
			}
			return fmt.Errorf("load order: %w", err)
		}

		if !order.Cancellable() {
			return ErrNotCancellable
		}

		for _, item := range order.Items {
			if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("release stock: %w", mapConflict(err))
			}
		}

		paymentStatus := order.PaymentStatus
		if order.PaymentStatus && order.PaymentMethod == model.PaymentMethodCredit {
			newBalance, err := s.buyerRepo.CreditBalance(ctx, order.BuyerID, order.TotalAmount)
			if err != nil {
				return fmt.Errorf("refund balance: %w", mapConflict(err))
			}
			if _, err := s.ledgerRepo.Append(ctx, &model.CreditTransaction{
				BuyerID:      order.BuyerID,
				Amount:       order.TotalAmount,
				Type:         model.CreditEntryCredit,
				Reference:    order.OrderNumber,
				Description:  fmt.Sprintf("Refund for order %s", order.OrderNumber),
				BalanceAfter: newBalance,
			}); err != nil {
				return fmt.Errorf("append refund ledger entry: %w", err)
			}
			if _, err := s.txnRepo.Create(ctx, &model.Transaction{
				TransactionID: model.NewTransactionID(),
				BuyerID:       &order.BuyerID,
				SellerID:      &order.SellerID,
				OrderID:       &order.ID,
				Type:          model.TransactionRefund,
				Amount:        order.TotalAmount,
				Status:        model.TransactionStatusCompleted,
				Description:   fmt.Sprintf("Refund for order %s", order.OrderNumber),
			}); err != nil {
				return fmt.Errorf("create refund record: %w", err)
			}
			paymentStatus = false
		}

		if err := s.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, paymentStatus); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		// A still-pending purchase record is closed out with the order.
		if err := s.txnRepo.CompleteByOrder(ctx, order.ID, model.TransactionStatusCancelled); err != nil &&
			!errors.Is(err, repository.ErrTransactionNotFound) {
			return fmt.Errorf("cancel transaction record: %w", err)
		}

		order.Status = model.OrderStatusCancelled
		order.PaymentStatus = paymentStatus
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, model.OrderEventCancelled, cancelled)

	return cancelled, nil
}

func (s *SettlementService) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
		}
		return nil, err
	}
	return order, nil
}

func (s *SettlementService) ListOrders(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	return s.orderRepo.List(ctx, f)
}

func (s *SettlementService) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.txnRepo.List(ctx, f)
}

// publishEvent is best-effort: the settlement already committed, so a
// failed publish is logged and the notifier catches up via reconciliation.
func (s *SettlementService) publishEvent(ctx context.Context, eventType model.OrderEventType, order *model.Order) {
	if s.events == nil || order == nil {
		return
	}
	event := model.OrderEvent{
		Type:        eventType,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
	if _, err := s.events.PublishJSON(ctx, event, map[string]string{"type": string(eventType)}); err != nil {
		logger.Error("failed to publish order event", "order_number", order.OrderNumber, "type", eventType, "error", err)
	}
}

// mapConflict folds repository retry exhaustion into the storage
// conflict category callers are expected to retry on.
func mapConflict(err error) error {
	if errors.Is(err, repository.ErrConcurrentUpdate) || errors.Is(err, repository.ErrMaxRetriesExceeded) {
		return ErrStorageConflict
	}
	return err
}

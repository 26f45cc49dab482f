package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Progression is linear
// (pending -> confirmed -> processing -> shipped -> delivered); cancelled
// can be reached from any pre-delivery state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCredit        PaymentMethod = "credit"
	PaymentMethodOnline        PaymentMethod = "online"
	PaymentMethodPurchaseOrder PaymentMethod = "purchase_order"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCredit, PaymentMethodOnline, PaymentMethodPurchaseOrder:
		return true
	}
	return false
}

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	BuyerID         int64           `json:"buyer_id"`
	SellerID        int64           `json:"seller_id"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GSTAmount       decimal.Decimal `json:"gst_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   bool            `json:"payment_status"`
	PODocumentRef   string          `json:"po_document_ref,omitempty"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Cancellable reports whether the order may still be cancelled.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

// OrderItem snapshots price and GST rate at order time; it is never
// re-derived from the live product.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	GSTRate    int             `json:"gst_rate"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (OrderItem) TableName() string { return "order_items" }

// NewOrderNumber generates a fresh human-readable order identifier,
// e.g. ORD3F2A91BC. Collision probability is negligible for the volume
// this system handles.
func NewOrderNumber() string {
	return "ORD" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// PlaceOrderRequest is the input for placing a single-product order.
type PlaceOrderRequest struct {
	BuyerID         int64
	ProductID       int64
	Quantity        int64
	PaymentMethod   PaymentMethod
	ShippingAddress string
	PODocumentRef   string
}

func (r PlaceOrderRequest) Validate() error {
	if r.BuyerID == 0 {
		return errors.New("buyer_id is required")
	}
	if r.ProductID == 0 {
		return errors.New("product_id is required")
	}
	if r.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	if !ValidPaymentMethod(r.PaymentMethod) {
		return errors.New("payment_method must be credit, online or purchase_order")
	}
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return errors.New("shipping_address is required")
	}
	return nil
}

// OrderFilter controls order listing.
type OrderFilter struct {
	BuyerID  *int64
	SellerID *int64
	Statuses []OrderStatus
	Limit    int
	Offset   int
	Desc     bool
}

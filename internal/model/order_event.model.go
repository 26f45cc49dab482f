package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventConfirmed OrderEventType = "order.confirmed"
	OrderEventPlaced    OrderEventType = "order.placed"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

// OrderEvent is published to the event stream after a settlement
// commits; the notifier consumes it to deliver seller webhooks.
type OrderEvent struct {
	Type        OrderEventType  `json:"type"`
	OrderNumber string          `json:"order_number"`
	BuyerID     int64           `json:"buyer_id"`
	SellerID    int64           `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

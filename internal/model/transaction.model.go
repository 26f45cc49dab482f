package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPurchase     TransactionType = "purchase"
	TransactionCreditAdd    TransactionType = "credit_add"
	TransactionCreditDeduct TransactionType = "credit_deduct"
	TransactionRefund       TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is the money-movement audit record, parallel to the
// credit ledger. It is not used to reconstruct balances but must agree
// with the ledger in aggregate.
type Transaction struct {
	ID              int64             `json:"id"`
	TransactionID   string            `json:"transaction_id"`
	BuyerID         *int64            `json:"buyer_id,omitempty"`
	SellerID        *int64            `json:"seller_id,omitempty"`
	OrderID         *int64            `json:"order_id,omitempty"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          TransactionStatus `json:"status"`
	Description     string            `json:"description,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

// NewTransactionID generates a fresh transaction identifier, e.g.
// TXN8C04E19A2F.
func NewTransactionID() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
}

// TransactionFilter controls transaction listing.
type TransactionFilter struct {
	BuyerID  *int64
	SellerID *int64
	Type     *TransactionType
	Status   *TransactionStatus
	Limit    int
	Offset   int
}

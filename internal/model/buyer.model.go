package model

import "github.com/shopspring/decimal"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Buyer is a purchasing account. CreditBalance is the single mutable
// scalar on it; every change is paired with one ledger entry carrying
// the resulting balance.
type Buyer struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	BusinessName   string          `json:"business_name"`
	GSTIN          string          `json:"gstin"`
	CreditBalance  decimal.Decimal `json:"credit_balance"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	Verified       bool            `json:"verified"`
}

func (Buyer) TableName() string { return "buyers" }

func (b *Buyer) CanPurchase(amount decimal.Decimal) bool {
	return b.CreditBalance.GreaterThanOrEqual(amount)
}

package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreditEntryType string

const (
	CreditEntryCredit CreditEntryType = "credit"
	CreditEntryDebit  CreditEntryType = "debit"
)

// CreditTransaction is one immutable ledger entry for a buyer's credit
// balance. BalanceAfter is the balance immediately after this entry was
// applied; across a buyer's entries in creation order these values must
// form a consistent running total.
type CreditTransaction struct {
	ID           int64           `json:"id"`
	BuyerID      int64           `json:"buyer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         CreditEntryType `json:"type"`
	Reference    string          `json:"reference,omitempty"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (CreditTransaction) TableName() string { return "credit_transactions" }

// AddCreditRequest is the input for a credit top-up.
type AddCreditRequest struct {
	BuyerID     int64
	Amount      decimal.Decimal
	Reference   string
	Description string
}

func (r AddCreditRequest) Validate() error {
	if r.BuyerID == 0 {
		return errors.New("buyer_id is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

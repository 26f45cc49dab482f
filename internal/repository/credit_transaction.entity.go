package repository

import (
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type CreditTransactionEntity struct {
	ID           int64           `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	BuyerID      int64           `db:"buyer_id"      gorm:"column:buyer_id;not null;index"`
	Buyer        *BuyerEntity    `db:"-"             gorm:"foreignKey:BuyerID;references:ID;constraint:OnDelete:CASCADE"`
	Amount       decimal.Decimal `db:"amount"        gorm:"column:amount;type:numeric(12,2);not null"`
	Type         string          `db:"type"          gorm:"column:type;not null"`
	Reference    string          `db:"reference"     gorm:"column:reference"`
	Description  string          `db:"description"   gorm:"column:description"`
	BalanceAfter decimal.Decimal `db:"balance_after" gorm:"column:balance_after;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (CreditTransactionEntity) TableName() string {
	return "credit_transactions"
}

func toCreditTransactionEntity(m *model.CreditTransaction) *CreditTransactionEntity {
	if m == nil {
		return nil
	}
	return &CreditTransactionEntity{
		ID:           m.ID,
		BuyerID:      m.BuyerID,
		Amount:       m.Amount,
		Type:         string(m.Type),
		Reference:    m.Reference,
		Description:  m.Description,
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}
}

func toCreditTransactionModel(e *CreditTransactionEntity) *model.CreditTransaction {
	if e == nil {
		return nil
	}
	return &model.CreditTransaction{
		ID:           e.ID,
		BuyerID:      e.BuyerID,
		Amount:       e.Amount,
		Type:         model.CreditEntryType(e.Type),
		Reference:    e.Reference,
		Description:  e.Description,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
}

func toCreditTransactionModels(entities []*CreditTransactionEntity) []*model.CreditTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.CreditTransaction, len(entities))
	for i, e := range entities {
		models[i] = toCreditTransactionModel(e)
	}
	return models
}

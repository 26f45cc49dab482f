package repository

import (
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID   string          `db:"transaction_id"   gorm:"column:transaction_id;not null;unique"`
	BuyerID         *int64          `db:"buyer_id"         gorm:"column:buyer_id;index"`
	SellerID        *int64          `db:"seller_id"        gorm:"column:seller_id;index"`
	OrderID         *int64          `db:"order_id"         gorm:"column:order_id;index"`
	Order           *OrderEntity    `db:"-"                gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Type            string          `db:"type"             gorm:"column:type;not null"`
	Amount          decimal.Decimal `db:"amount"           gorm:"column:amount;type:numeric(12,2);not null"`
	Status          string          `db:"status"           gorm:"column:status;not null;default:pending"`
	Description     string          `db:"description"      gorm:"column:description"`
	ReferenceNumber string          `db:"reference_number" gorm:"column:reference_number"`
	CreatedAt       time.Time       `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:              m.ID,
		TransactionID:   m.TransactionID,
		BuyerID:         m.BuyerID,
		SellerID:        m.SellerID,
		OrderID:         m.OrderID,
		Type:            string(m.Type),
		Amount:          m.Amount,
		Status:          string(m.Status),
		Description:     m.Description,
		ReferenceNumber: m.ReferenceNumber,
		CreatedAt:       m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:              e.ID,
		TransactionID:   e.TransactionID,
		BuyerID:         e.BuyerID,
		SellerID:        e.SellerID,
		OrderID:         e.OrderID,
		Type:            model.TransactionType(e.Type),
		Amount:          e.Amount,
		Status:          model.TransactionStatus(e.Status),
		Description:     e.Description,
		ReferenceNumber: e.ReferenceNumber,
		CreatedAt:       e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

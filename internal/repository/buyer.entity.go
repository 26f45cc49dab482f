package repository

import (
	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type BuyerEntity struct {
	ID             int64           `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Name           string          `db:"name"            gorm:"column:name;not null"`
	BusinessName   string          `db:"business_name"   gorm:"column:business_name"`
	GSTIN          string          `db:"gstin"           gorm:"column:gstin;not null;unique"`
	CreditBalance  decimal.Decimal `db:"credit_balance"  gorm:"column:credit_balance;type:numeric(12,2);not null;default:0"`
	ApprovalStatus string          `db:"approval_status" gorm:"column:approval_status;not null;default:pending"`
	Verified       bool            `db:"verified"        gorm:"column:verified;not null;default:false"`
}

func (BuyerEntity) TableName() string {
	return "buyers"
}

func toBuyerEntity(m *model.Buyer) *BuyerEntity {
	if m == nil {
		return nil
	}
	return &BuyerEntity{
		ID:             m.ID,
		Name:           m.Name,
		BusinessName:   m.BusinessName,
		GSTIN:          m.GSTIN,
		CreditBalance:  m.CreditBalance,
		ApprovalStatus: string(m.ApprovalStatus),
		Verified:       m.Verified,
	}
}

func toBuyerModel(e *BuyerEntity) *model.Buyer {
	if e == nil {
		return nil
	}
	return &model.Buyer{
		ID:             e.ID,
		Name:           e.Name,
		BusinessName:   e.BusinessName,
		GSTIN:          e.GSTIN,
		CreditBalance:  e.CreditBalance,
		ApprovalStatus: model.ApprovalStatus(e.ApprovalStatus),
		Verified:       e.Verified,
	}
}

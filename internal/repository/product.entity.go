package repository

import (
	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type SellerEntity struct {
	ID             int64  `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	BusinessName   string `db:"business_name"   gorm:"column:business_name;not null"`
	GSTIN          string `db:"gstin"           gorm:"column:gstin;not null;unique"`
	ApprovalStatus string `db:"approval_status" gorm:"column:approval_status;not null;default:pending"`
	Verified       bool   `db:"verified"        gorm:"column:verified;not null;default:false"`
	WebhookURL     string `db:"webhook_url"     gorm:"column:webhook_url"`
}

func (SellerEntity) TableName() string {
	return "sellers"
}

func toSellerModel(e *SellerEntity) *model.Seller {
	if e == nil {
		return nil
	}
	return &model.Seller{
		ID:             e.ID,
		BusinessName:   e.BusinessName,
		GSTIN:          e.GSTIN,
		ApprovalStatus: model.ApprovalStatus(e.ApprovalStatus),
		Verified:       e.Verified,
		WebhookURL:     e.WebhookURL,
	}
}

type ProductEntity struct {
	ID                   int64           `db:"id"                     gorm:"primaryKey;autoIncrement;column:id"`
	SellerID             int64           `db:"seller_id"              gorm:"column:seller_id;not null;index"`
	Seller               *SellerEntity   `db:"-"                      gorm:"foreignKey:SellerID;references:ID;constraint:OnDelete:CASCADE"`
	Name                 string          `db:"name"                   gorm:"column:name;not null"`
	MRP                  decimal.Decimal `db:"mrp"                    gorm:"column:mrp;type:numeric(10,2);not null"`
	SellingPrice         decimal.Decimal `db:"selling_price"          gorm:"column:selling_price;type:numeric(10,2);not null"`
	GSTRate              int             `db:"gst_rate"               gorm:"column:gst_rate;not null;default:18"`
	StockQuantity        int64           `db:"stock_quantity"         gorm:"column:stock_quantity;not null;default:0"`
	MinimumOrderQuantity int64           `db:"minimum_order_quantity" gorm:"column:minimum_order_quantity;not null;default:1"`
	ApprovalStatus       string          `db:"approval_status"        gorm:"column:approval_status;not null;default:pending"`
	IsActive             bool            `db:"is_active"              gorm:"column:is_active;not null;default:true"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:                   e.ID,
		SellerID:             e.SellerID,
		Name:                 e.Name,
		MRP:                  e.MRP,
		SellingPrice:         e.SellingPrice,
		GSTRate:              e.GSTRate,
		StockQuantity:        e.StockQuantity,
		MinimumOrderQuantity: e.MinimumOrderQuantity,
		ApprovalStatus:       model.ApprovalStatus(e.ApprovalStatus),
		IsActive:             e.IsActive,
	}
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		ID:                   m.ID,
		SellerID:             m.SellerID,
		Name:                 m.Name,
		MRP:                  m.MRP,
		SellingPrice:         m.SellingPrice,
		GSTRate:              m.GSTRate,
		StockQuantity:        m.StockQuantity,
		MinimumOrderQuantity: m.MinimumOrderQuantity,
		ApprovalStatus:       string(m.ApprovalStatus),
		IsActive:             m.IsActive,
	}
}

package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// GSTRates is the enumerated set of legal GST percentages.
var GSTRates = []int{0, 5, 12, 18, 28}

func ValidGSTRate(rate int) bool {
	for _, r := range GSTRates {
		if r == rate {
			return true
		}
	}
	return false
}

type Product struct {
	ID                   int64           `json:"id"`
	SellerID             int64           `json:"seller_id"`
	Name                 string          `json:"name"`
	MRP                  decimal.Decimal `json:"mrp"`
	SellingPrice         decimal.Decimal `json:"selling_price"`
	GSTRate              int             `json:"gst_rate"`
	StockQuantity        int64           `json:"stock_quantity"`
	MinimumOrderQuantity int64           `json:"minimum_order_quantity"`
	ApprovalStatus       ApprovalStatus  `json:"approval_status"`
	IsActive             bool            `json:"is_active"`
}

func (Product) TableName() string { return "products" }

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// Available reports whether the product may be ordered at all. The
// catalog layer checks this before showing a buy button; the settlement
// engine re-checks it because approval can be revoked at any time.
func (p *Product) Available() bool {
	return p.IsActive && p.ApprovalStatus == ApprovalApproved
}

func (p *Product) Validate() error {
	if p.SellerID == 0 {
		return errors.New("seller_id is required")
	}
	if p.SellingPrice.GreaterThan(p.MRP) {
		return errors.New("selling_price cannot exceed mrp")
	}
	if !ValidGSTRate(p.GSTRate) {
		return errors.New("gst_rate must be one of 0, 5, 12, 18, 28")
	}
	if p.StockQuantity < 0 {
		return errors.New("stock_quantity cannot be negative")
	}
	if p.MinimumOrderQuantity < 1 {
		return errors.New("minimum_order_quantity must be at least 1")
	}
	return nil
}

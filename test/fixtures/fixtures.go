package fixtures

import (
	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

var (
	TestBuyerFunded = model.Buyer{
		ID:             1,
		Name:           "Asha Rao",
		BusinessName:   "Rao Electricals",
		GSTIN:          "29RAOE1234F1Z5",
		CreditBalance:  decimal.RequireFromString("1000.00"),
		ApprovalStatus: model.ApprovalApproved,
		Verified:       true,
	}

	TestBuyerLowBalance = model.Buyer{
		ID:             2,
		Name:           "Vikram Shah",
		BusinessName:   "Shah Hardware",
		GSTIN:          "27SHAH5678K1Z3",
		CreditBalance:  decimal.RequireFromString("10.00"),
		ApprovalStatus: model.ApprovalApproved,
		Verified:       true,
	}

	TestBuyerZeroBalance = model.Buyer{
		ID:             3,
		Name:           "Meena Pillai",
		BusinessName:   "Pillai Supplies",
		GSTIN:          "33PILL9012M1Z8",
		CreditBalance:  decimal.Zero,
		ApprovalStatus: model.ApprovalApproved,
		Verified:       true,
	}

	TestSeller = model.Seller{
		ID:             1,
		BusinessName:   "Copper Works",
		GSTIN:          "29COPP3456W1Z2",
		ApprovalStatus: model.ApprovalApproved,
		Verified:       true,
	}
)

func NewTestProduct(id, sellerID int64, price string, gstRate int, stock int64) *model.Product {
	return &model.Product{
		ID:                   id,
		SellerID:             sellerID,
		Name:                 "Copper Wire Spool",
		MRP:                  decimal.RequireFromString(price).Mul(decimal.NewFromInt(2)),
		SellingPrice:         decimal.RequireFromString(price),
		GSTRate:              gstRate,
		StockQuantity:        stock,
		MinimumOrderQuantity: 1,
		ApprovalStatus:       model.ApprovalApproved,
		IsActive:             true,
	}
}

func NewPlaceOrderRequest(buyerID, productID, quantity int64, method model.PaymentMethod) model.PlaceOrderRequest {
	return model.PlaceOrderRequest{
		BuyerID:         buyerID,
		ProductID:       productID,
		Quantity:        quantity,
		PaymentMethod:   method,
		ShippingAddress: "14 Industrial Estate, Peenya, Bengaluru 560058",
	}
}

func NewAddCreditRequest(buyerID int64, amount string) model.AddCreditRequest {
	return model.AddCreditRequest{
		BuyerID:     buyerID,
		Amount:      decimal.RequireFromString(amount),
		Reference:   "NEFT-UTR-000123",
		Description: "credit top-up",
	}
}

func OrderFilterByBuyer(buyerID int64) model.OrderFilter {
	return model.OrderFilter{
		BuyerID: &buyerID,
		Limit:   50,
		Offset:  0,
		Desc:    false,
	}
}

func TransactionFilterByBuyer(buyerID int64) model.TransactionFilter {
	return model.TransactionFilter{
		BuyerID: &buyerID,
		Limit:   50,
		Offset:  0,
	}
}

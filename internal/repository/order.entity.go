package repository

import (
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type OrderEntity struct {
	ID              int64             `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	OrderNumber     string            `db:"order_number"     gorm:"column:order_number;not null;unique"`
	BuyerID         int64             `db:"buyer_id"         gorm:"column:buyer_id;not null;index"`
	Buyer           *BuyerEntity      `db:"-"                gorm:"foreignKey:BuyerID;references:ID;constraint:OnDelete:CASCADE"`
	SellerID        int64             `db:"seller_id"        gorm:"column:seller_id;not null;index"`
	Subtotal        decimal.Decimal   `db:"subtotal"         gorm:"column:subtotal;type:numeric(12,2);not null"`
	GSTAmount       decimal.Decimal   `db:"gst_amount"       gorm:"column:gst_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal   `db:"total_amount"     gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          string            `db:"status"           gorm:"column:status;not null;default:pending"`
	PaymentMethod   string            `db:"payment_method"   gorm:"column:payment_method;not null"`
	PaymentStatus   bool              `db:"payment_status"   gorm:"column:payment_status;not null;default:false"`
	PODocumentRef   string            `db:"po_document_ref"  gorm:"column:po_document_ref"`
	ShippingAddress string            `db:"shipping_address" gorm:"column:shipping_address;not null"`
	Items           []OrderItemEntity `db:"-"                gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `db:"updated_at"       gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

type OrderItemEntity struct {
	ID         int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	OrderID    int64           `db:"order_id"    gorm:"column:order_id;not null;index"`
	ProductID  int64           `db:"product_id"  gorm:"column:product_id;not null;index"`
	Quantity   int64           `db:"quantity"    gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `db:"unit_price"  gorm:"column:unit_price;type:numeric(10,2);not null"`
	GSTRate    int             `db:"gst_rate"    gorm:"column:gst_rate;not null"`
	TotalPrice decimal.Decimal `db:"total_price" gorm:"column:total_price;type:numeric(12,2);not null"`
}

func (OrderItemEntity) TableName() string {
	return "order_items"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	e := &OrderEntity{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		BuyerID:         m.BuyerID,
		SellerID:        m.SellerID,
		Subtotal:        m.Subtotal,
		GSTAmount:       m.GSTAmount,
		TotalAmount:     m.TotalAmount,
		Status:          string(m.Status),
		PaymentMethod:   string(m.PaymentMethod),
		PaymentStatus:   m.PaymentStatus,
		PODocumentRef:   m.PODocumentRef,
		ShippingAddress: m.ShippingAddress,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, it := range m.Items {
		e.Items = append(e.Items, OrderItemEntity{
			ID:         it.ID,
			OrderID:    it.OrderID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			GSTRate:    it.GSTRate,
			TotalPrice: it.TotalPrice,
		})
	}
	return e
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	m := &model.Order{
		ID:              e.ID,
		OrderNumber:     e.OrderNumber,
		BuyerID:         e.BuyerID,
		SellerID:        e.SellerID,
		Subtotal:        e.Subtotal,
		GSTAmount:       e.GSTAmount,
		TotalAmount:     e.TotalAmount,
		Status:          model.OrderStatus(e.Status),
		PaymentMethod:   model.PaymentMethod(e.PaymentMethod),
		PaymentStatus:   e.PaymentStatus,
		PODocumentRef:   e.PODocumentRef,
		ShippingAddress: e.ShippingAddress,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	for _, it := range e.Items {
		m.Items = append(m.Items, model.OrderItem{
			ID:         it.ID,
			OrderID:    it.OrderID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			GSTRate:    it.GSTRate,
			TotalPrice: it.TotalPrice,
		})
	}
	return m
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	if entities == nil {
		return nil
	}
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}

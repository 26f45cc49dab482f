package repository

import (
	"context"
	"errors"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

// Create persists the order together with its items in one insert.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	entity := toOrderEntity(order)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderModel(entity), nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return toOrderModel(&entity), nil
}

// GetByNumberForUpdate loads the order with a row lock so that status
// transitions (payment confirmation, cancellation) serialize per order.
func (r *OrderRepository) GetByNumberForUpdate(ctx context.Context, orderNumber string) (*model.Order, error) {
	var entity OrderEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_number = ?", orderNumber).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var items []OrderItemEntity
	if err := r.Write(ctx).WithContext(ctx).
		Where("order_id = ?", entity.ID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	entity.Items = items

	return toOrderModel(&entity), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus bool) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":         string(status),
			"payment_status": paymentStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&OrderEntity{})

	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*OrderEntity
	if err := q.Preload("Items").Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toOrderModels(entities), total, nil
}

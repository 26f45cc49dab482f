package repository

import (
	"context"
	"errors"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// CompleteByOrder moves the pending purchase record for an order to its
// terminal status when payment is confirmed or the order cancelled.
func (r *TransactionRepository) CompleteByOrder(ctx context.Context, orderID int64, status model.TransactionStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("order_id = ? AND type = ? AND status = ?", orderID, string(model.TransactionPurchase), string(model.TransactionStatusPending)).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

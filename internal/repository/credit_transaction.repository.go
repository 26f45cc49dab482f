package repository

import (
	"context"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
)

// CreditTransactionRepository is the append-only credit ledger. Entries
// are never updated or deleted.
type CreditTransactionRepository struct {
	*pg.DB
}

func NewCreditTransactionRepository(db *pg.DB) *CreditTransactionRepository {
	return &CreditTransactionRepository{
		db,
	}
}

func (r *CreditTransactionRepository) Append(ctx context.Context, entry *model.CreditTransaction) (*model.CreditTransaction, error) {
	entity := toCreditTransactionEntity(entry)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCreditTransactionModel(entity), nil
}

// ListByBuyer returns the buyer's ledger entries newest-first.
func (r *CreditTransactionRepository) ListByBuyer(ctx context.Context, buyerID int64, limit int) ([]*model.CreditTransaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}

	var entities []*CreditTransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toCreditTransactionModels(entities), nil
}

// Replay returns all entries for a buyer in creation order, used to
// verify the running-balance invariant.
func (r *CreditTransactionRepository) Replay(ctx context.Context, buyerID int64) ([]*model.CreditTransaction, error) {
	var entities []*CreditTransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toCreditTransactionModels(entities), nil
}

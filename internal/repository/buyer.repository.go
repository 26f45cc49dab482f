package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBuyerNotFound       = errors.New("buyer not found")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded  = errors.New("max retries exceeded")
)

type BuyerRepository struct {
	*pg.DB
}

func NewBuyerRepository(db *pg.DB) *BuyerRepository {
	return &BuyerRepository{
		db,
	}
}

func (r *BuyerRepository) Create(ctx context.Context, b *BuyerEntity) error {
	return r.Write(ctx).WithContext(ctx).Create(b).Error
}

func (r *BuyerRepository) GetByID(ctx context.Context, buyerID int64) (*model.Buyer, error) {
	var entity BuyerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", buyerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuyerNotFound
		}
		return nil, err
	}
	return toBuyerModel(&entity), nil
}

// DebitBalance atomically deducts amount from the buyer's credit balance
// and returns the resulting balance. The row is locked for the duration
// of the surrounding transaction, so the returned value is exactly the
// balance a paired ledger entry must record. Transient failures are
// retried with exponential backoff; running out of funds is not retried.
func (r *BuyerRepository) DebitBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		balance, err := r.debitBalanceAttempt(ctx, buyerID, amount)

		if err == nil {
			return balance, nil
		}

		if errors.Is(err, ErrBuyerNotFound) ||
			errors.Is(err, ErrInsufficientBalance) {
			return decimal.Zero, err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return decimal.Zero, fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *BuyerRepository) debitBalanceAttempt(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var entity BuyerEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", buyerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrBuyerNotFound
		}
		return decimal.Zero, err
	}

	if entity.CreditBalance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientBalance
	}

	newBalance := entity.CreditBalance.Sub(amount)

	result := r.Write(ctx).WithContext(ctx).
		Model(&BuyerEntity{}).
		Where("id = ?", buyerID).
		Update("credit_balance", newBalance)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, ErrConcurrentUpdate
	}

	return newBalance, nil
}

// CreditBalance atomically adds amount to the buyer's credit balance
// using the same SELECT FOR UPDATE pattern as DebitBalance and returns
// the resulting balance.
func (r *BuyerRepository) CreditBalance(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		balance, err := r.creditBalanceAttempt(ctx, buyerID, amount)

		if err == nil {
			return balance, nil
		}

		if errors.Is(err, ErrBuyerNotFound) {
			return decimal.Zero, err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return decimal.Zero, fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *BuyerRepository) creditBalanceAttempt(ctx context.Context, buyerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var entity BuyerEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", buyerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrBuyerNotFound
		}
		return decimal.Zero, err
	}

	newBalance := entity.CreditBalance.Add(amount)

	result := r.Write(ctx).WithContext(ctx).
		Model(&BuyerEntity{}).
		Where("id = ?", buyerID).
		Update("credit_balance", newBalance)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, ErrBuyerNotFound
	}

	return newBalance, nil
}

func (r *BuyerRepository) GetBalance(ctx context.Context, buyerID int64) (decimal.Decimal, error) {
	var entity BuyerEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("credit_balance").
		Where("id = ?", buyerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrBuyerNotFound
		}
		return decimal.Zero, err
	}
	return entity.CreditBalance, nil
}

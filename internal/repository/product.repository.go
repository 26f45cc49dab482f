package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("insufficient stock")
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *ProductEntity) error {
	return r.Write(ctx).WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, productID int64) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", productID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductModel(&entity), nil
}

// ReserveStock decrements the product's available quantity. The stock
// level is re-read under a row lock inside the caller's transaction, so
// two concurrent purchasers of the last unit cannot both pass the check.
func (r *ProductRepository) ReserveStock(ctx context.Context, productID int64, quantity int64) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := r.reserveStockAttempt(ctx, productID, quantity)

		if err == nil {
			return nil
		}

		if errors.Is(err, ErrProductNotFound) ||
			errors.Is(err, ErrOutOfStock) {
			return err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *ProductRepository) reserveStockAttempt(ctx context.Context, productID int64, quantity int64) error {
	var entity ProductEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if entity.StockQuantity < quantity {
		return ErrOutOfStock
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Update("stock_quantity", entity.StockQuantity-quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

// ReleaseStock returns previously reserved quantity to the product,
// used when an order is cancelled.
func (r *ProductRepository) ReleaseStock(ctx context.Context, productID int64, quantity int64) error {
	var entity ProductEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Update("stock_quantity", entity.StockQuantity+quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

func (r *ProductRepository) GetStock(ctx context.Context, productID int64) (int64, error) {
	var entity ProductEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("stock_quantity").
		Where("id = ?", productID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return entity.StockQuantity, nil
}

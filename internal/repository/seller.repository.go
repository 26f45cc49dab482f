package repository

import (
	"context"
	"errors"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrSellerNotFound = errors.New("seller not found")
)

type SellerRepository struct {
	*pg.DB
}

func NewSellerRepository(db *pg.DB) *SellerRepository {
	return &SellerRepository{
		db,
	}
}

func (r *SellerRepository) Create(ctx context.Context, s *SellerEntity) error {
	return r.Write(ctx).WithContext(ctx).Create(s).Error
}

func (r *SellerRepository) GetByID(ctx context.Context, sellerID int64) (*model.Seller, error) {
	var entity SellerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", sellerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return toSellerModel(&entity), nil
}

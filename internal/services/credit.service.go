package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/repository"
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// CreditService adds funds to buyer accounts. It shares the
// read-modify-write-append pattern with the settlement engine so that
// concurrent top-ups and purchases never lose an update.
type CreditService struct {
	buyerRepo  BuyerRepository
	ledgerRepo LedgerRepository
	txnRepo    TransactionRepository
}

func NewCreditService(buyerRepo BuyerRepository, ledgerRepo LedgerRepository, txnRepo TransactionRepository) *CreditService {
	return &CreditService{
		buyerRepo:  buyerRepo,
		ledgerRepo: ledgerRepo,
		txnRepo:    txnRepo,
	}
}

// AddCredit atomically increases the buyer's balance and appends the
// paired ledger entry carrying the resulting balance.
func (s *CreditService) AddCredit(ctx context.Context, req model.AddCreditRequest) (*model.CreditTransaction, error) {
	if req.BuyerID == 0 {
		return nil, fmt.Errorf("%w: buyer_id is required", ErrNotFound)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var entry *model.CreditTransaction
	err := s.buyerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		newBalance, err := s.buyerRepo.CreditBalance(ctx, req.BuyerID, req.Amount)
		if err != nil {
			if errors.Is(err, repository.ErrBuyerNotFound) {
				return fmt.Errorf("%w: buyer %d", ErrNotFound, req.BuyerID)
			}
			return fmt.Errorf("credit balance: %w", mapConflict(err))
		}

		appended, err := s.ledgerRepo.Append(ctx, &model.CreditTransaction{
			BuyerID:      req.BuyerID,
			Amount:       req.Amount,
			Type:         model.CreditEntryCredit,
			Reference:    req.Reference,
			Description:  req.Description,
			BalanceAfter: newBalance,
		})
		if err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		entry = appended

		if _, err := s.txnRepo.Create(ctx, &model.Transaction{
			TransactionID:   model.NewTransactionID(),
			BuyerID:         &req.BuyerID,
			Type:            model.TransactionCreditAdd,
			Amount:          req.Amount,
			Status:          model.TransactionStatusCompleted,
			Description:     req.Description,
			ReferenceNumber: req.Reference,
		}); err != nil {
			return fmt.Errorf("create transaction record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Statement returns the buyer's ledger entries, newest first.
func (s *CreditService) Statement(ctx context.Context, buyerID int64, limit int) ([]*model.CreditTransaction, error) {
	if _, err := s.buyerRepo.GetByID(ctx, buyerID); err != nil {
		if errors.Is(err, repository.ErrBuyerNotFound) {
			return nil, fmt.Errorf("%w: buyer %d", ErrNotFound, buyerID)
		}
		return nil, err
	}
	return s.ledgerRepo.ListByBuyer(ctx, buyerID, limit)
}

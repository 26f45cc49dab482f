package services

import (
	"context"
	"testing"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreditService_AddCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the balance and writes the ledger entry", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		ledgerRepo := new(MockLedgerRepository)
		txnRepo := new(MockTransactionRepository)
		svc := NewCreditService(buyerRepo, ledgerRepo, txnRepo)

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		buyerRepo.On("CreditBalance", ctx, int64(1), amountEq("500.00")).Return(dec("1500.00"), nil)

		ledgerRepo.On("Append", ctx, mock.MatchedBy(func(e *model.CreditTransaction) bool {
			return e.BuyerID == 1 &&
				e.Type == model.CreditEntryCredit &&
				e.Amount.Equal(dec("500.00")) &&
				e.BalanceAfter.Equal(dec("1500.00")) &&
				e.Reference == "NEFT-20260828-001"
		})).Return(&model.CreditTransaction{
			ID:           10,
			BuyerID:      1,
			Amount:       dec("500.00"),
			Type:         model.CreditEntryCredit,
			BalanceAfter: dec("1500.00"),
		}, nil)

		txnRepo.On("Create", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
			return txn.Type == model.TransactionCreditAdd &&
				txn.Status == model.TransactionStatusCompleted &&
				txn.Amount.Equal(dec("500.00"))
		})).Return(&model.Transaction{ID: 10}, nil)

		entry, err := svc.AddCredit(ctx, model.AddCreditRequest{
			BuyerID:     1,
			Amount:      dec("500.00"),
			Reference:   "NEFT-20260828-001",
			Description: "Bank transfer top-up",
		})
		require.NoError(t, err)
		assert.True(t, entry.BalanceAfter.Equal(dec("1500.00")))

		buyerRepo.AssertExpectations(t)
		ledgerRepo.AssertExpectations(t)
		txnRepo.AssertExpectations(t)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		svc := NewCreditService(buyerRepo, new(MockLedgerRepository), new(MockTransactionRepository))

		_, err := svc.AddCredit(ctx, model.AddCreditRequest{BuyerID: 1, Amount: decimal.Zero})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.AddCredit(ctx, model.AddCreditRequest{BuyerID: 1, Amount: dec("-10.00")})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		buyerRepo.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
	})

	t.Run("unknown buyer", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		ledgerRepo := new(MockLedgerRepository)
		svc := NewCreditService(buyerRepo, ledgerRepo, new(MockTransactionRepository))

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		buyerRepo.On("CreditBalance", ctx, int64(99), mock.AnythingOfType("decimal.Decimal")).
			Return(decimal.Zero, repository.ErrBuyerNotFound)

		_, err := svc.AddCredit(ctx, model.AddCreditRequest{BuyerID: 99, Amount: dec("100.00")})
		assert.ErrorIs(t, err, ErrNotFound)

		ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("ledger failure aborts the transaction", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		ledgerRepo := new(MockLedgerRepository)
		txnRepo := new(MockTransactionRepository)
		svc := NewCreditService(buyerRepo, ledgerRepo, txnRepo)

		buyerRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		buyerRepo.On("CreditBalance", ctx, int64(1), mock.AnythingOfType("decimal.Decimal")).
			Return(dec("600.00"), nil)
		ledgerRepo.On("Append", ctx, mock.AnythingOfType("*model.CreditTransaction")).
			Return(nil, assert.AnError)

		_, err := svc.AddCredit(ctx, model.AddCreditRequest{BuyerID: 1, Amount: dec("100.00")})
		assert.Error(t, err)

		txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCreditService_Statement(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the buyer ledger", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		ledgerRepo := new(MockLedgerRepository)
		svc := NewCreditService(buyerRepo, ledgerRepo, new(MockTransactionRepository))

		buyerRepo.On("GetByID", ctx, int64(1)).Return(testBuyer(), nil)
		ledgerRepo.On("ListByBuyer", ctx, int64(1), 20).Return([]*model.CreditTransaction{
			{ID: 2, BalanceAfter: dec("720.00")},
			{ID: 1, BalanceAfter: dec("1000.00")},
		}, nil)

		entries, err := svc.Statement(ctx, 1, 20)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].BalanceAfter.Equal(dec("720.00")))
	})

	t.Run("unknown buyer", func(t *testing.T) {
		buyerRepo := new(MockBuyerRepository)
		svc := NewCreditService(buyerRepo, new(MockLedgerRepository), new(MockTransactionRepository))

		buyerRepo.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrBuyerNotFound)

		_, err := svc.Statement(ctx, 99, 20)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

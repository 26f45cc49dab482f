package repository

import (
	"context"
	"testing"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditTransactionRepository_Append(t *testing.T) {
	db := setupTestDB(t).DB
	buyers := NewBuyerRepository(db)
	ledger := NewCreditTransactionRepository(db)
	ctx := context.Background()

	require.NoError(t, buyers.Create(ctx, &BuyerEntity{
		ID:    1,
		Name:  "Acme Traders",
		GSTIN: "22AAAAA0000A1Z5",
	}))

	entry, err := ledger.Append(ctx, &model.CreditTransaction{
		BuyerID:      1,
		Amount:       dec("500.00"),
		Type:         model.CreditEntryCredit,
		Reference:    "NEFT-1234",
		Description:  "Credit added",
		BalanceAfter: dec("500.00"),
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.True(t, entry.BalanceAfter.Equal(dec("500.00")))
}

func TestCreditTransactionRepository_Replay(t *testing.T) {
	db := setupTestDB(t).DB
	buyers := NewBuyerRepository(db)
	ledger := NewCreditTransactionRepository(db)
	ctx := context.Background()

	require.NoError(t, buyers.Create(ctx, &BuyerEntity{
		ID:    1,
		Name:  "Acme Traders",
		GSTIN: "22AAAAA0000A1Z5",
	}))

	entries := []*model.CreditTransaction{
		{BuyerID: 1, Amount: dec("1000.00"), Type: model.CreditEntryCredit, BalanceAfter: dec("1000.00")},
		{BuyerID: 1, Amount: dec("280.00"), Type: model.CreditEntryDebit, BalanceAfter: dec("720.00")},
		{BuyerID: 1, Amount: dec("100.00"), Type: model.CreditEntryCredit, BalanceAfter: dec("820.00")},
	}
	for _, e := range entries {
		_, err := ledger.Append(ctx, e)
		require.NoError(t, err)
	}

	replayed, err := ledger.Replay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, replayed, 3)

	// Running total reproduces each recorded balance_after.
	running := dec("0")
	for i, e := range replayed {
		if e.Type == model.CreditEntryCredit {
			running = running.Add(e.Amount)
		} else {
			running = running.Sub(e.Amount)
		}
		assert.True(t, running.Equal(e.BalanceAfter), "entry %d: running %s != balance_after %s", i, running, e.BalanceAfter)
	}
}

func TestCreditTransactionRepository_ListByBuyer(t *testing.T) {
	db := setupTestDB(t).DB
	buyers := NewBuyerRepository(db)
	ledger := NewCreditTransactionRepository(db)
	ctx := context.Background()

	require.NoError(t, buyers.Create(ctx, &BuyerEntity{
		ID:    1,
		Name:  "Acme Traders",
		GSTIN: "22AAAAA0000A1Z5",
	}))

	for i := 0; i < 5; i++ {
		_, err := ledger.Append(ctx, &model.CreditTransaction{
			BuyerID:      1,
			Amount:       dec("10.00"),
			Type:         model.CreditEntryCredit,
			BalanceAfter: decimal.NewFromInt(int64((i + 1) * 10)),
		})
		require.NoError(t, err)
	}

	listed, err := ledger.ListByBuyer(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	// Newest first.
	assert.Greater(t, listed[0].ID, listed[1].ID)
	assert.Greater(t, listed[1].ID, listed[2].ID)
}

package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	balance, err := ledger.Credit(context.Background(), account.ID, domain.NSL(500))
	require.NoError(t, err)
	assert.Equal(t, 500.0, balance)

	balance, err = ledger.Debit(context.Background(), account.ID, domain.NSL(300))
	require.NoError(t, err)
	assert.Equal(t, 200.0, balance)
	assert.Equal(t, 200.0, balanceNSL(t, store, account.ID))
}

func TestLedgerCurrenciesAreIndependent(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	_, err := ledger.Credit(context.Background(), account.ID, domain.NSL(100))
	require.NoError(t, err)
	_, err = ledger.Credit(context.Background(), account.ID, domain.USDT(40))
	require.NoError(t, err)

	// An NSL debit never dips into the USDT balance.
	_, err = ledger.Debit(context.Background(), account.ID, domain.NSL(120))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 100.0, balanceNSL(t, store, account.ID))
	assert.Equal(t, 40.0, balanceUSDT(t, store, account.ID))
}

func TestLedgerDebitInsufficientFundsIsNoop(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 50})

	_, err := ledger.Debit(context.Background(), account.ID, domain.NSL(51))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 50.0, balanceNSL(t, store, account.ID))

	// Exact balance drains to zero.
	balance, err := ledger.Debit(context.Background(), account.ID, domain.NSL(50))
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestLedgerRejectsInvalidMutations(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	_, err := ledger.Credit(context.Background(), account.ID, domain.Money{Currency: "BTC", Amount: 10})
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)

	_, err = ledger.Credit(context.Background(), account.ID, domain.NSL(0))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = ledger.Credit(context.Background(), account.ID, domain.NSL(-5))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = ledger.Credit(context.Background(), 999, domain.NSL(10))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLedgerConcurrentCreditsLoseNothing(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.Credit(context.Background(), account.ID, domain.NSL(10))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(workers*10), balanceNSL(t, store, account.ID))
}

func TestLedgerConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 100})

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			// Only 10 of these can ever succeed.
			_, _ = ledger.Debit(context.Background(), account.ID, domain.NSL(10))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, balanceNSL(t, store, account.ID), 0.0)
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

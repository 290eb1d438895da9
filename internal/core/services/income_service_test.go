package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func newIncomeFixture(t *testing.T) (*memory.Store, *IncomeService) {
	t.Helper()
	store := memory.NewStore()
	return store, NewIncomeService(store, NewLedgerService(store, nil), nil)
}

func seedMembership(t *testing.T, store *memory.Store, accountID, productID uint, expiresAt time.Time) *models.Membership {
	t.Helper()
	membership := &models.Membership{
		AccountID:   accountID,
		ProductID:   productID,
		PurchasedAt: expiresAt.AddDate(0, 0, -60),
		ExpiresAt:   expiresAt,
		Active:      true,
		AutoRenew:   true,
	}
	require.NoError(t, store.Memberships().Create(context.Background(), membership))
	return membership
}

func TestDailyIncomeCreditsActiveMemberships(t *testing.T) {
	store, svc := newIncomeFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	product := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 300, DailyIncomeNSL: 10})
	now := time.Now()
	membership := seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, 30))

	credited, err := svc.CreditDailyIncome(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, credited)
	assert.Equal(t, 10.0, balanceNSL(t, store, account.ID))

	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{Type: models.TxTypeIncome}, 0, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxStatusApproved, txns[0].Status)
	require.NotNil(t, txns[0].MembershipID)
	assert.Equal(t, membership.ID, *txns[0].MembershipID)
}

func TestDailyIncomePaysAtMostOncePerDay(t *testing.T) {
	store, svc := newIncomeFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	product := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 300, DailyIncomeNSL: 10})
	now := time.Now()
	seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, 30))

	credited, err := svc.CreditDailyIncome(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, credited)

	// A second run the same day pays nothing.
	credited, err = svc.CreditDailyIncome(context.Background(), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, credited)
	assert.Equal(t, 10.0, balanceNSL(t, store, account.ID))

	// The next day it pays again.
	credited, err = svc.CreditDailyIncome(context.Background(), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, credited)
	assert.Equal(t, 20.0, balanceNSL(t, store, account.ID))
}

func TestDailyIncomeSkipsExpiredAndInactive(t *testing.T) {
	store, svc := newIncomeFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	product := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 300, DailyIncomeNSL: 10})
	now := time.Now()

	seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, -1))
	deactivated := seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, 30))
	require.NoError(t, store.Memberships().Deactivate(context.Background(), deactivated.ID))

	credited, err := svc.CreditDailyIncome(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, credited)
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

func TestDailyIncomeStampsZeroIncomeProducts(t *testing.T) {
	store, svc := newIncomeFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	product := seedProduct(t, store, &models.Product{Name: "Starter", Rank: 1, PriceNSL: 50, DailyIncomeNSL: 0})
	now := time.Now()
	membership := seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, 30))

	credited, err := svc.CreditDailyIncome(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, credited)

	// The stamp still advances so the sweep terminates.
	reloaded, err := store.Memberships().GetByID(context.Background(), membership.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastIncomeAt)
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

// brokenBalanceStore refuses balance writes for one account and passes
// everything else through to the wrapped store.
type brokenBalanceStore struct {
	repositories.Store
	failID uint
}

func (s *brokenBalanceStore) Accounts() repositories.AccountRepository {
	return &brokenBalanceAccounts{s.Store.Accounts(), s.failID}
}

func (s *brokenBalanceStore) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	return s.Store.InTx(ctx, func(st repositories.Store) error {
		return fn(&brokenBalanceStore{st, s.failID})
	})
}

type brokenBalanceAccounts struct {
	repositories.AccountRepository
	failID uint
}

func (r *brokenBalanceAccounts) AdjustBalance(ctx context.Context, id uint, money domain.Money) (float64, error) {
	if id == r.failID {
		return 0, errors.New("balance write refused")
	}
	return r.AccountRepository.AdjustBalance(ctx, id, money)
}

func TestDailyIncomeSweepTerminatesDespitePersistentFailure(t *testing.T) {
	store := memory.NewStore()
	broken := seedAccount(t, store, &models.Account{Phone: "111", Username: "broken", ReferralCode: "BROKEN12"})
	healthy := seedAccount(t, store, &models.Account{Phone: "222", Username: "healthy", ReferralCode: "HEALTHY1"})
	product := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 300, DailyIncomeNSL: 10})
	now := time.Now()
	seedMembership(t, store, broken.ID, product.ID, now.AddDate(0, 0, 30))
	seedMembership(t, store, healthy.ID, product.ID, now.AddDate(0, 0, 30))

	wrapped := &brokenBalanceStore{Store: store, failID: broken.ID}
	svc := NewIncomeService(wrapped, NewLedgerService(wrapped, nil), nil)

	type result struct {
		credited int
		err      error
	}
	done := make(chan result, 1)
	go func() {
		credited, err := svc.CreditDailyIncome(context.Background(), now)
		done <- result{credited, err}
	}()

	// The failing membership stays due the whole sweep; the sweep must
	// still finish instead of re-fetching it forever.
	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, 1, got.credited)
	case <-time.After(2 * time.Second):
		t.Fatal("income sweep did not terminate with a persistently failing credit")
	}

	assert.Equal(t, 10.0, balanceNSL(t, store, healthy.ID))
	assert.Equal(t, 0.0, balanceNSL(t, store, broken.ID))
}

func TestDailyIncomeStopsOnContextCancel(t *testing.T) {
	store, svc := newIncomeFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	product := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 300, DailyIncomeNSL: 10})
	now := time.Now()
	seedMembership(t, store, account.ID, product.ID, now.AddDate(0, 0, 30))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CreditDailyIncome(ctx, now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func newMembershipFixture(t *testing.T) (*memory.Store, *MembershipService) {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	return store, NewMembershipService(store, ledger, nil, nil, nil)
}

func TestPurchaseDebitsAndActivates(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 500})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)

	assert.True(t, membership.Active)
	assert.Equal(t, 200.0, balanceNSL(t, store, account.ID))
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), membership.ExpiresAt, time.Minute)

	updated, err := store.Accounts().GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP1", updated.VipLevel)

	// One settled purchase row paired with the debit.
	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{Type: models.TxTypePurchase}, 0, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxStatusApproved, txns[0].Status)
	assert.Equal(t, 300.0, txns[0].Amount)
	require.NotNil(t, txns[0].MembershipID)
	assert.Equal(t, membership.ID, *txns[0].MembershipID)
}

func TestPurchaseInsufficientFundsLeavesNothingBehind(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 100})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	_, err := svc.Purchase(context.Background(), account.ID, product.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 100.0, balanceNSL(t, store, account.ID))
	active, err := store.Memberships().ListActiveByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRepeatPurchaseWhileActiveFails(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	first, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), account.ID, product.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyOwned)

	var owned *domain.AlreadyOwnedError
	require.ErrorAs(t, err, &owned)
	assert.Equal(t, first.ExpiresAt.Unix(), owned.ExpiresAt.Unix())

	// The failed retry must not touch the balance.
	assert.Equal(t, 700.0, balanceNSL(t, store, account.ID))
}

func TestPurchaseInactiveProduct(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	disabled, err := store.Products().GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	disabled.Active = false
	require.NoError(t, store.Products().Update(context.Background(), disabled))

	_, err = svc.Purchase(context.Background(), account.ID, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductInactive)
	assert.Equal(t, 1000.0, balanceNSL(t, store, account.ID))
}

func TestPurchaseFrozenAccount(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000, Status: models.AccountStatusFrozen})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	_, err := svc.Purchase(context.Background(), account.ID, product.ID)
	assert.ErrorIs(t, err, domain.ErrAccountFrozen)
}

func TestVipLevelTracksHighestActiveRank(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 10000})
	vip1 := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})
	vip3 := seedProduct(t, store, &models.Product{Name: "VIP3", Rank: 3, PriceNSL: 600, DailyIncomeNSL: 21})

	_, err := svc.Purchase(context.Background(), account.ID, vip1.ID)
	require.NoError(t, err)
	m3, err := svc.Purchase(context.Background(), account.ID, vip3.ID)
	require.NoError(t, err)

	updated, err := store.Accounts().GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP3", updated.VipLevel)

	// Expiring the higher rank drops the level to the surviving membership.
	_, err = svc.Expire(context.Background(), m3.ID)
	require.NoError(t, err)

	updated, err = store.Accounts().GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP1", updated.VipLevel)
}

func TestExpireIsIdempotent(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)

	expired, err := svc.Expire(context.Background(), membership.ID)
	require.NoError(t, err)
	assert.False(t, expired.Active)

	again, err := svc.Expire(context.Background(), membership.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	updated, err := store.Accounts().GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "none", updated.VipLevel)
}

func TestExpireDueRenewsWhenAffordable(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)

	expired, renewed, err := svc.ExpireDue(context.Background(), membership.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, renewed)

	// Renewal repurchased at catalog price.
	assert.Equal(t, 400.0, balanceNSL(t, store, account.ID))
	active, err := store.Memberships().ListActiveByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotEqual(t, membership.ID, active[0].ID)

	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{Type: models.TxTypeRenewal}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestExpireDueLapsesWhenUnaffordable(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 300})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))

	expired, renewed, err := svc.ExpireDue(context.Background(), membership.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, renewed)

	active, err := store.Memberships().ListActiveByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	updated, err := store.Accounts().GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "none", updated.VipLevel)
}

func TestExpireDueSkipsAutoRenewOff(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SetAutoRenew(context.Background(), account.ID, membership.ID, false))

	expired, renewed, err := svc.ExpireDue(context.Background(), membership.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, renewed)
	assert.Equal(t, 700.0, balanceNSL(t, store, account.ID))
}

func TestSetAutoRenewOwnershipCheck(t *testing.T) {
	store, svc := newMembershipFixture(t)
	alice := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	bob := seedAccount(t, store, &models.Account{Phone: "222", Username: "bob", ReferralCode: "BOB12345"})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), alice.ID, product.ID)
	require.NoError(t, err)

	err = svc.SetAutoRenew(context.Background(), bob.ID, membership.ID, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConcurrentPurchasesYieldOneMembership(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 3000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	// Balance covers ten buys; the locked account row must still let only
	// the first one through.
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), account.ID, product.ID)
			if err == nil {
				succeeded.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyOwned)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	active, err := store.Memberships().ListActiveByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, 2700.0, balanceNSL(t, store, account.ID))
}

func TestExpireDueStopsOnContextCancel(t *testing.T) {
	store, svc := newMembershipFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 1000})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 300, DailyIncomeNSL: 10})

	membership, err := svc.Purchase(context.Background(), account.ID, product.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = svc.ExpireDue(ctx, membership.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was swept under the cancelled context.
	active, err := store.Memberships().ListActiveByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

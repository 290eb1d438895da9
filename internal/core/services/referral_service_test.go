package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
)

func newReferralFixture(t *testing.T) (*memory.Store, *ReferralService, *MembershipService) {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	referral := NewReferralService(store, ledger, nil, nil)
	membership := NewMembershipService(store, ledger, referral, nil, nil)
	return store, referral, membership
}

func TestReferralBonusOnFirstPurchase(t *testing.T) {
	store, _, membership := newReferralFixture(t)
	referrer := seedAccount(t, store, &models.Account{Phone: "111", Username: "referrer", ReferralCode: "REF12345"})
	code := referrer.ReferralCode
	buyer := seedAccount(t, store, &models.Account{
		Phone: "222", Username: "buyer", ReferralCode: "BUY12345",
		ReferredBy: &code, ReferralBonusPct: 35, BalanceNSL: 1000,
	})
	product := seedProduct(t, store, &models.Product{Name: "VIP5", Rank: 5, PriceNSL: 1000, DailyIncomeNSL: 95})

	_, err := membership.Purchase(context.Background(), buyer.ID, product.ID)
	require.NoError(t, err)

	// 35% of the 1000 NSL price lands with the referrer.
	assert.Equal(t, 350.0, balanceNSL(t, store, referrer.ID))
	assert.Equal(t, 0.0, balanceNSL(t, store, buyer.ID))

	total, err := store.Referrals().TotalBonusByReferrer(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 350.0, total)

	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{Type: models.TxTypeReferralBonus}, 0, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, referrer.ID, txns[0].AccountID)
	assert.Equal(t, models.TxStatusApproved, txns[0].Status)
}

func TestReferralBonusPaidOnlyOnce(t *testing.T) {
	store, _, membership := newReferralFixture(t)
	referrer := seedAccount(t, store, &models.Account{Phone: "111", Username: "referrer", ReferralCode: "REF12345"})
	code := referrer.ReferralCode
	buyer := seedAccount(t, store, &models.Account{
		Phone: "222", Username: "buyer", ReferralCode: "BUY12345",
		ReferredBy: &code, ReferralBonusPct: 35, BalanceNSL: 5000,
	})
	vip1 := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 1000, DailyIncomeNSL: 10})
	vip2 := seedProduct(t, store, &models.Product{Name: "VIP2", Rank: 2, PriceNSL: 2000, DailyIncomeNSL: 20})

	_, err := membership.Purchase(context.Background(), buyer.ID, vip1.ID)
	require.NoError(t, err)
	_, err = membership.Purchase(context.Background(), buyer.ID, vip2.ID)
	require.NoError(t, err)

	// Only the first purchase pays; the larger second one does not.
	assert.Equal(t, 350.0, balanceNSL(t, store, referrer.ID))
}

func TestReferralNoReferrerNoBonus(t *testing.T) {
	store, referral, _ := newReferralFixture(t)
	buyer := seedAccount(t, store, &models.Account{Phone: "222", Username: "buyer", ReferralCode: "BUY12345", BalanceNSL: 1000})

	paid, err := referral.OnQualifyingPurchase(context.Background(), buyer.ID, 1000)
	require.NoError(t, err)
	assert.Nil(t, paid)
}

func TestReferralZeroSnapshotPaysNothing(t *testing.T) {
	store, referral, _ := newReferralFixture(t)
	referrer := seedAccount(t, store, &models.Account{Phone: "111", Username: "referrer", ReferralCode: "REF12345"})
	code := referrer.ReferralCode
	buyer := seedAccount(t, store, &models.Account{
		Phone: "222", Username: "buyer", ReferralCode: "BUY12345",
		ReferredBy: &code, ReferralBonusPct: 0,
	})

	paid, err := referral.OnQualifyingPurchase(context.Background(), buyer.ID, 1000)
	require.NoError(t, err)
	assert.Nil(t, paid)
	assert.Equal(t, 0.0, balanceNSL(t, store, referrer.ID))
}

func TestReferralConcurrentPayoutIsExactlyOnce(t *testing.T) {
	store, referral, _ := newReferralFixture(t)
	referrer := seedAccount(t, store, &models.Account{Phone: "111", Username: "referrer", ReferralCode: "REF12345"})
	code := referrer.ReferralCode
	buyer := seedAccount(t, store, &models.Account{
		Phone: "222", Username: "buyer", ReferralCode: "BUY12345",
		ReferredBy: &code, ReferralBonusPct: 35,
	})

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := referral.OnQualifyingPurchase(context.Background(), buyer.ID, 1000)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 350.0, balanceNSL(t, store, referrer.ID))

	referrals, total, err := store.Referrals().ListByReferrer(context.Background(), referrer.ID, 0, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, referrals, 1)
	assert.Equal(t, buyer.ID, referrals[0].ReferredID)
}

func TestReferralSummaryTotals(t *testing.T) {
	store, referral, membership := newReferralFixture(t)
	referrer := seedAccount(t, store, &models.Account{Phone: "111", Username: "referrer", ReferralCode: "REF12345"})
	code := referrer.ReferralCode
	buyerA := seedAccount(t, store, &models.Account{
		Phone: "222", Username: "buyera", ReferralCode: "BUYA1234",
		ReferredBy: &code, ReferralBonusPct: 35, BalanceNSL: 1000,
	})
	buyerB := seedAccount(t, store, &models.Account{
		Phone: "333", Username: "buyerb", ReferralCode: "BUYB1234",
		ReferredBy: &code, ReferralBonusPct: 20, BalanceNSL: 1000,
	})
	product := seedProduct(t, store, &models.Product{Name: "VIP1", Rank: 1, PriceNSL: 1000, DailyIncomeNSL: 10})

	_, err := membership.Purchase(context.Background(), buyerA.ID, product.ID)
	require.NoError(t, err)
	_, err = membership.Purchase(context.Background(), buyerB.ID, product.ID)
	require.NoError(t, err)

	// Each buyer pays at the rate snapshotted on their own account.
	summary, total, err := referral.ListByReferrer(context.Background(), referrer.ID, &paginationParams)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, 550.0, summary.TotalBonusNSL)
	assert.Len(t, summary.Referrals, 2)
}

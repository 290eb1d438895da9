package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func newBatchFixture(t *testing.T) (*memory.Store, *BatchService, *ApprovalService) {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	approval := NewApprovalService(store, ledger, nil, nil)
	return store, NewBatchService(store, approval, ledger, nil), approval
}

func TestBatchApproveReportsPerTarget(t *testing.T) {
	store, batch, approval := newBatchFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	var ids []uint
	for i := 0; i < 4; i++ {
		txn, err := approval.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(100), "")
		require.NoError(t, err)
		ids = append(ids, txn.ID)
	}

	// One target is already settled before the batch runs.
	preApproved, err := approval.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(100), "")
	require.NoError(t, err)
	_, err = approval.Approve(context.Background(), preApproved.ID, admin.ID)
	require.NoError(t, err)
	ids = append(ids, preApproved.ID)

	report, err := batch.ApproveTransactions(context.Background(), ids, admin.ID)
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 4)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, preApproved.ID, report.Failed[0].ID)
	assert.Equal(t, domain.ErrNotPending.Error(), report.Failed[0].Error)

	// Four batch credits plus the earlier manual one.
	assert.Equal(t, 500.0, balanceNSL(t, store, account.ID))
}

func TestBatchApproveFailedTargetDoesNotStopOthers(t *testing.T) {
	store, batch, approval := newBatchFixture(t)
	poor := seedAccount(t, store, &models.Account{Phone: "111", Username: "poor", ReferralCode: "POOR1234"})
	rich := seedAccount(t, store, &models.Account{Phone: "222", Username: "rich", ReferralCode: "RICH1234", BalanceNSL: 1000})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	uncoverable, err := approval.CreateRequest(context.Background(), poor.ID, models.TxTypeWithdrawal, domain.NSL(500), "")
	require.NoError(t, err)
	covered, err := approval.CreateRequest(context.Background(), rich.ID, models.TxTypeWithdrawal, domain.NSL(500), "")
	require.NoError(t, err)

	report, err := batch.ApproveTransactions(context.Background(), []uint{uncoverable.ID, covered.ID}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{covered.ID}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, uncoverable.ID, report.Failed[0].ID)

	// The uncoverable one stays pending for a retry after top-up.
	reloaded, err := store.Transactions().GetByID(context.Background(), uncoverable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, reloaded.Status)
	assert.Equal(t, 500.0, balanceNSL(t, store, rich.ID))
}

func TestBatchRejectSharedReason(t *testing.T) {
	store, batch, approval := newBatchFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	a, err := approval.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(100), "")
	require.NoError(t, err)
	b, err := approval.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(200), "")
	require.NoError(t, err)

	_, err = batch.RejectTransactions(context.Background(), []uint{a.ID, b.ID}, admin.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	report, err := batch.RejectTransactions(context.Background(), []uint{a.ID, b.ID}, admin.ID, "suspected duplicate submission")
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 2)
	assert.Empty(t, report.Failed)

	for _, id := range []uint{a.ID, b.ID} {
		reloaded, err := store.Transactions().GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.TxStatusRejected, reloaded.Status)
		require.NotNil(t, reloaded.RejectReason)
		assert.Equal(t, "suspected duplicate submission", *reloaded.RejectReason)
	}
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

func TestBatchAddCurrencyCreditsEachTarget(t *testing.T) {
	store, batch, _ := newBatchFixture(t)
	alice := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	bob := seedAccount(t, store, &models.Account{Phone: "222", Username: "bob", ReferralCode: "BOB12345"})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	_, err := batch.AddCurrency(context.Background(), []uint{alice.ID, bob.ID}, domain.NSL(50), "gift", admin.ID)
	assert.ErrorIs(t, err, domain.ErrValidationFailed, "reason shorter than 5 chars")

	report, err := batch.AddCurrency(context.Background(), []uint{alice.ID, bob.ID, 404}, domain.NSL(50), "launch promotion", admin.ID)
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 2)
	require.Len(t, report.Failed, 1)
	assert.EqualValues(t, 404, report.Failed[0].ID)

	assert.Equal(t, 50.0, balanceNSL(t, store, alice.ID))
	assert.Equal(t, 50.0, balanceNSL(t, store, bob.ID))

	// Every credit leaves a settled audit row with the reason.
	txns, _, err := store.Transactions().List(context.Background(), repositories.TransactionFilter{Type: models.TxTypeRecharge}, 0, 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, models.TxStatusApproved, txn.Status)
		assert.Equal(t, "launch promotion", txn.Notes)
	}
}

func TestBatchSetAccountStatus(t *testing.T) {
	store, batch, _ := newBatchFixture(t)
	alice := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	super := seedAccount(t, store, &models.Account{Phone: "999", Username: "root", ReferralCode: "ROOT1234", Role: models.RoleSuperAdmin})

	_, err := batch.SetAccountStatus(context.Background(), []uint{alice.ID}, "banned", "")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	report, err := batch.SetAccountStatus(context.Background(), []uint{alice.ID, super.ID}, models.AccountStatusFrozen, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, super.ID, report.Failed[0].ID)

	frozen, err := store.Accounts().GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusFrozen, frozen.Status)

	untouched, err := store.Accounts().GetByID(context.Background(), super.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, untouched.Status)
}

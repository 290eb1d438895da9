package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func newApprovalFixture(t *testing.T) (*memory.Store, *ApprovalService) {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store, nil)
	return store, NewApprovalService(store, ledger, nil, nil)
}

func TestCreateRequestStartsPending(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(100), "bank ref 42")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, txn.Status)
	assert.NotEmpty(t, txn.OrderRef)

	// Filing a request moves no money.
	assert.Equal(t, 0.0, balanceNSL(t, store, account.ID))
}

func TestCreateRequestValidation(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})

	_, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypePurchase, domain.NSL(100), "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionType)

	_, err = svc.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.NSL(-1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.Money{Currency: "XRP", Amount: 5}, "")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)

	frozen := seedAccount(t, store, &models.Account{Phone: "222", Username: "bob", ReferralCode: "BOB12345", Status: models.AccountStatusFrozen})
	_, err = svc.CreateRequest(context.Background(), frozen.ID, models.TxTypeWithdrawal, domain.NSL(10), "")
	assert.ErrorIs(t, err, domain.ErrAccountFrozen)
}

func TestApproveDepositCredits(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeRecharge, domain.USDT(250), "")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), txn.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.CompletedAt)
	assert.Equal(t, 250.0, balanceUSDT(t, store, account.ID))
}

func TestApproveWithdrawalDebits(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 500})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeWithdrawal, domain.NSL(300), "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), txn.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, balanceNSL(t, store, account.ID))
}

func TestApproveUncoverableWithdrawalStaysPending(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 100})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeWithdrawal, domain.NSL(300), "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), txn.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The failed approval rolls back entirely: still pending, balance intact.
	reloaded, err := store.Transactions().GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.ApprovedBy)
	assert.Equal(t, 100.0, balanceNSL(t, store, account.ID))

	// A later top-up lets the same request settle.
	_, err = NewLedgerService(store, nil).Credit(context.Background(), account.ID, domain.NSL(250))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), txn.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, balanceNSL(t, store, account.ID))
}

func TestRejectMovesNoMoney(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 500})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeWithdrawal, domain.NSL(300), "to my GTB account")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), txn.ID, admin.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	rejected, err := svc.Reject(context.Background(), txn.ID, admin.ID, "unverified bank details")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "unverified bank details", *rejected.RejectReason)
	// The requester's note survives the rejection.
	assert.Equal(t, "to my GTB account", rejected.Notes)
	assert.Equal(t, 500.0, balanceNSL(t, store, account.ID))
}

func TestTerminalStatesAreFinal(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 500})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeWithdrawal, domain.NSL(100), "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), txn.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), txn.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)
	_, err = svc.Reject(context.Background(), txn.ID, admin.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrNotPending)

	// The double approve must not double debit.
	assert.Equal(t, 400.0, balanceNSL(t, store, account.ID))
}

func TestConcurrentApproveRejectHasOneWinner(t *testing.T) {
	store, svc := newApprovalFixture(t)
	account := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", BalanceNSL: 500})
	admin := seedAccount(t, store, &models.Account{Phone: "999", Username: "admin", ReferralCode: "ADMIN123", Role: models.RoleAdmin})

	txn, err := svc.CreateRequest(context.Background(), account.ID, models.TxTypeWithdrawal, domain.NSL(100), "")
	require.NoError(t, err)

	var approvals, rejections atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Approve(context.Background(), txn.ID, admin.ID); err == nil {
				approvals.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.Reject(context.Background(), txn.ID, admin.ID, "beaten by approve"); err == nil {
				rejections.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, approvals.Load()+rejections.Load())

	reloaded, err := store.Transactions().GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	if approvals.Load() == 1 {
		assert.Equal(t, models.TxStatusApproved, reloaded.Status)
		assert.Equal(t, 400.0, balanceNSL(t, store, account.ID))
	} else {
		assert.Equal(t, models.TxStatusRejected, reloaded.Status)
		assert.Equal(t, 500.0, balanceNSL(t, store, account.ID))
	}
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func TestAccountReviewQueue(t *testing.T) {
	store := memory.NewStore()
	svc := NewAccountService(store, nil)
	pending := seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123", Status: models.AccountStatusPending})
	super := seedAccount(t, store, &models.Account{Phone: "999", Username: "root", ReferralCode: "ROOT1234", Role: models.RoleSuperAdmin})

	approved, err := svc.Approve(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, approved.Status)

	frozen, err := svc.Freeze(context.Background(), pending.ID, "chargeback dispute")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusFrozen, frozen.Status)

	thawed, err := svc.Unfreeze(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, thawed.Status)

	// Superadmin accounts are never touched by the review queue.
	_, err = svc.Freeze(context.Background(), super.ID, "should not work")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	accounts, total, err := svc.List(context.Background(), models.AccountStatusActive, &paginationParams)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "the superadmin account is active too")
	assert.Len(t, accounts, 2)
}

func TestAccountListFiltersByStatus(t *testing.T) {
	store := memory.NewStore()
	svc := NewAccountService(store, nil)
	seedAccount(t, store, &models.Account{Phone: "111", Username: "alice", ReferralCode: "ALICE123"})
	seedAccount(t, store, &models.Account{Phone: "222", Username: "bob", ReferralCode: "BOB12345", Status: models.AccountStatusPending})
	seedAccount(t, store, &models.Account{Phone: "333", Username: "carol", ReferralCode: "CAROL123", Status: models.AccountStatusPending})

	pending, total, err := svc.List(context.Background(), models.AccountStatusPending, &paginationParams)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	all, total, err := svc.List(context.Background(), "", &paginationParams)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
}

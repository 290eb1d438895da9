package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/pkg/pagination"
)

var paginationParams = pagination.Params{Page: 1, Limit: 50}

func seedAccount(t *testing.T, store *memory.Store, account *models.Account) *models.Account {
	t.Helper()
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	if account.Status == "" {
		account.Status = models.AccountStatusActive
	}
	if account.VipLevel == "" {
		account.VipLevel = "none"
	}
	require.NoError(t, store.Accounts().Create(context.Background(), account))
	return account
}

func seedProduct(t *testing.T, store *memory.Store, product *models.Product) *models.Product {
	t.Helper()
	if product.ValidityDays == 0 {
		product.ValidityDays = 60
	}
	product.Active = true
	require.NoError(t, store.Products().Create(context.Background(), product))
	return product
}

func seedRate(t *testing.T, store *memory.Store, code string, rateToUSD float64) *models.ExchangeRate {
	t.Helper()
	feed := rateToUSD
	now := time.Now()
	rate := &models.ExchangeRate{
		CurrencyCode:     code,
		CurrencyName:     code,
		RateToUSD:        rateToUSD,
		USDPerUnit:       1 / rateToUSD,
		FeedRate:         &feed,
		ActiveRateSource: models.RateSourceFeed,
		LastFeedUpdate:   &now,
		Enabled:          true,
	}
	require.NoError(t, store.Rates().Create(context.Background(), rate))
	return rate
}

func balanceNSL(t *testing.T, store *memory.Store, accountID uint) float64 {
	t.Helper()
	account, err := store.Accounts().GetByID(context.Background(), accountID)
	require.NoError(t, err)
	return account.BalanceNSL
}

func balanceUSDT(t *testing.T, store *memory.Store, accountID uint) float64 {
	t.Helper()
	account, err := store.Accounts().GetByID(context.Background(), accountID)
	require.NoError(t, err)
	return account.BalanceUSDT
}

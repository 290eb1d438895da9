package services

import (
	"context"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/metrics"
	"nsl-memberhub/internal/pkg/pagination"
)

// LedgerService owns balance mutations. Every mutation goes through one
// conditional increment that either applies fully or leaves the balance
// untouched; there is no read-modify-write path.
type LedgerService struct {
	store     repositories.Store
	collector *metrics.Collector
}

// NewLedgerService creates a ledger service. collector may be nil.
func NewLedgerService(store repositories.Store, collector *metrics.Collector) *LedgerService {
	return &LedgerService{store: store, collector: collector}
}

// Credit adds money to an account and returns the new balance.
func (s *LedgerService) Credit(ctx context.Context, accountID uint, money domain.Money) (float64, error) {
	if err := money.Validate(); err != nil {
		return 0, err
	}
	return s.Apply(ctx, s.store, accountID, money)
}

// Debit removes money from an account and returns the new balance. Fails
// with domain.ErrInsufficientFunds when the balance cannot cover the amount,
// leaving it unchanged.
func (s *LedgerService) Debit(ctx context.Context, accountID uint, money domain.Money) (float64, error) {
	if err := money.Validate(); err != nil {
		return 0, err
	}
	return s.Apply(ctx, s.store, accountID, money.Negate())
}

// Apply applies a signed mutation through the given store so callers can
// compose it with their own writes inside one transaction. Positive amounts
// credit, negative amounts debit.
func (s *LedgerService) Apply(ctx context.Context, st repositories.Store, accountID uint, money domain.Money) (float64, error) {
	if !money.Currency.Valid() {
		return 0, domain.ErrUnknownCurrency
	}
	if money.Amount == 0 {
		return 0, domain.ErrInvalidAmount
	}

	balance, err := st.Accounts().AdjustBalance(ctx, accountID, money)
	if err != nil {
		if err == domain.ErrInsufficientFunds && s.collector != nil {
			s.collector.RecordRejected(string(money.Currency))
		}
		return 0, err
	}

	if s.collector != nil {
		direction := "credit"
		if money.Amount < 0 {
			direction = "debit"
		}
		s.collector.RecordMutation(direction, string(money.Currency))
	}
	return balance, nil
}

// Balances returns the account's current wallet balances.
func (s *LedgerService) Balances(ctx context.Context, accountID uint) (nsl, usdt float64, err error) {
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	return account.BalanceNSL, account.BalanceUSDT, nil
}

// History lists the account's transaction rows, newest first.
func (s *LedgerService) History(ctx context.Context, accountID uint, txType, status string, params *pagination.Params) ([]*models.Transaction, int64, error) {
	filter := repositories.TransactionFilter{
		AccountID: &accountID,
		Type:      txType,
		Status:    status,
	}
	return s.store.Transactions().List(ctx, filter, params.Offset, params.Limit)
}

package services

import (
	"context"
	"fmt"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/pagination"
)

// AccountService handles profile reads and the admin account review queue.
type AccountService struct {
	store    repositories.Store
	notifier Notifier
}

// NewAccountService creates an account service. notifier may be nil.
func NewAccountService(store repositories.Store, notifier Notifier) *AccountService {
	return &AccountService{store: store, notifier: notifier}
}

// GetProfile returns one account.
func (s *AccountService) GetProfile(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.store.Accounts().GetByID(ctx, accountID)
}

// List returns accounts, optionally narrowed to one status.
func (s *AccountService) List(ctx context.Context, status string, params *pagination.Params) ([]*models.Account, int64, error) {
	if status != "" {
		return s.store.Accounts().ListByStatus(ctx, status, params.Offset, params.Limit)
	}
	return s.store.Accounts().List(ctx, params.Offset, params.Limit)
}

// Approve activates a pending account.
func (s *AccountService) Approve(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.setStatus(ctx, accountID, models.AccountStatusActive, "Your account has been approved")
}

// Freeze freezes an account, blocking login and money movement.
func (s *AccountService) Freeze(ctx context.Context, accountID uint, reason string) (*models.Account, error) {
	message := "Your account has been frozen"
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return s.setStatus(ctx, accountID, models.AccountStatusFrozen, message)
}

// Unfreeze returns a frozen account to active.
func (s *AccountService) Unfreeze(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.setStatus(ctx, accountID, models.AccountStatusActive, "Your account is active again")
}

func (s *AccountService) setStatus(ctx context.Context, accountID uint, status, message string) (*models.Account, error) {
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role == models.RoleSuperAdmin {
		return nil, domain.ErrForbidden
	}
	if err := s.store.Accounts().UpdateStatus(ctx, accountID, status); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: accountID,
			Kind:      domain.EventAccountStatus,
			Title:     "Account status updated",
			Message:   message,
			At:        time.Now(),
		})
	}
	return s.store.Accounts().GetByID(ctx, accountID)
}

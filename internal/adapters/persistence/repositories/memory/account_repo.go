package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type accountRepo struct {
	s *Store
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	defer r.s.lock()()

	for _, a := range r.s.d.accounts {
		if a.Phone == account.Phone || a.Username == account.Username || a.ReferralCode == account.ReferralCode {
			return domain.ErrDuplicateEntry
		}
	}

	account.ID = r.s.d.nextID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.s.d.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	defer r.s.lock()()

	account, ok := r.s.d.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

// GetByIDForUpdate matches GetByID here; InTx already holds the store mutex
// for the whole transaction, which subsumes the SQL store's row lock.
func (r *accountRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *accountRepo) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	defer r.s.lock()()

	for _, a := range r.s.d.accounts {
		if a.Phone == phone {
			account := a
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *accountRepo) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	defer r.s.lock()()

	for _, a := range r.s.d.accounts {
		if a.ReferralCode == code {
			account := a
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *accountRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	defer r.s.lock()()

	for _, a := range r.s.d.accounts {
		if a.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *accountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	defer r.s.lock()()

	for _, a := range r.s.d.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *accountRepo) AdjustBalance(ctx context.Context, id uint, money domain.Money) (float64, error) {
	defer r.s.lock()()

	account, ok := r.s.d.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	switch money.Currency {
	case domain.CurrencyNSL:
		if account.BalanceNSL+money.Amount < 0 {
			return 0, domain.ErrInsufficientFunds
		}
		account.BalanceNSL += money.Amount
		r.s.d.accounts[id] = account
		return account.BalanceNSL, nil
	case domain.CurrencyUSDT:
		if account.BalanceUSDT+money.Amount < 0 {
			return 0, domain.ErrInsufficientFunds
		}
		account.BalanceUSDT += money.Amount
		r.s.d.accounts[id] = account
		return account.BalanceUSDT, nil
	default:
		return 0, domain.ErrUnknownCurrency
	}
}

func (r *accountRepo) UpdateVipLevel(ctx context.Context, id uint, level string) error {
	defer r.s.lock()()

	account, ok := r.s.d.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.VipLevel = level
	r.s.d.accounts[id] = account
	return nil
}

func (r *accountRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	defer r.s.lock()()

	account, ok := r.s.d.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Status = status
	r.s.d.accounts[id] = account
	return nil
}

func (r *accountRepo) List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error) {
	defer r.s.lock()()
	return r.collect(func(models.Account) bool { return true }, offset, limit)
}

func (r *accountRepo) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Account, int64, error) {
	defer r.s.lock()()
	return r.collect(func(a models.Account) bool { return a.Status == status }, offset, limit)
}

func (r *accountRepo) collect(match func(models.Account) bool, offset, limit int) ([]*models.Account, int64, error) {
	var all []models.Account
	for _, a := range r.s.d.accounts {
		if match(a) {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	out := make([]*models.Account, 0, end-offset)
	for i := offset; i < end; i++ {
		account := all[i]
		out = append(out, &account)
	}
	return out, total, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository handles account data access
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate takes a SELECT ... FOR UPDATE on the account row. Two
// transactions locking the same account serialize here, so a check-then-act
// that follows the lock sees the other transaction's committed writes.
func (r *accountRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

func (r *accountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// balanceColumn maps a currency onto its balance column.
func balanceColumn(currency domain.Currency) (string, error) {
	switch currency {
	case domain.CurrencyNSL:
		return "balance_nsl", nil
	case domain.CurrencyUSDT:
		return "balance_usdt", nil
	default:
		return "", domain.ErrUnknownCurrency
	}
}

// AdjustBalance applies the delta with a conditional single-statement update:
// the WHERE clause re-checks the non-negativity precondition at write time, so
// a concurrent debit can never push the balance below zero. RowsAffected == 0
// means the precondition failed (or the account is gone) and nothing changed.
func (r *accountRepository) AdjustBalance(ctx context.Context, id uint, money domain.Money) (float64, error) {
	col, err := balanceColumn(money.Currency)
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where(fmt.Sprintf("id = ? AND %s + ? >= 0", col), id, money.Amount).
		UpdateColumn(col, gorm.Expr(fmt.Sprintf("%s + ?", col), money.Amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing account from a failed funds precondition.
		if _, err := r.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, domain.ErrInsufficientFunds
	}

	account, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if money.Currency == domain.CurrencyUSDT {
		return account.BalanceUSDT, nil
	}
	return account.BalanceNSL, nil
}

func (r *accountRepository) UpdateVipLevel(ctx context.Context, id uint, level string) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("vip_level", level).Error
}

func (r *accountRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error) {
	var accounts []*models.Account
	var total int64

	r.db.WithContext(ctx).Model(&models.Account{}).Count(&total)

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error

	return accounts, total, err
}

func (r *accountRepository) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Account, int64, error) {
	var accounts []*models.Account
	var total int64

	r.db.WithContext(ctx).Model(&models.Account{}).Where("status = ?", status).Count(&total)

	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error

	return accounts, total, err
}

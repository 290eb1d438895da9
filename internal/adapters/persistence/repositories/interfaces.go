package repositories

import (
	"context"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

// AccountRepository defines account data access. AdjustBalance is the single
// balance-mutation primitive: a conditional increment that either applies the
// whole delta or fails with domain.ErrInsufficientFunds, never a partial write.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	// GetByIDForUpdate reads the account under a row lock. Inside a Store.InTx
	// it is the serialization point for same-account flows whose invariants a
	// conditional write cannot carry, like one-active-membership-per-product.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error)
	GetByPhone(ctx context.Context, phone string) (*models.Account, error)
	GetByReferralCode(ctx context.Context, code string) (*models.Account, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	AdjustBalance(ctx context.Context, id uint, money domain.Money) (float64, error)
	UpdateVipLevel(ctx context.Context, id uint, level string) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error)
	ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Account, int64, error)
}

// ProductRepository defines catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ListActive(ctx context.Context) ([]*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
}

// MembershipRepository defines membership data access
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	GetByID(ctx context.Context, id uint) (*models.Membership, error)
	GetActiveByAccountAndProduct(ctx context.Context, accountID, productID uint) (*models.Membership, error)
	ListActiveByAccount(ctx context.Context, accountID uint) ([]*models.Membership, error)
	ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.Membership, int64, error)
	ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*models.Membership, error)
	ListIncomeDue(ctx context.Context, dayStart, now time.Time, limit int) ([]*models.Membership, error)
	Deactivate(ctx context.Context, id uint) error
	SetAutoRenew(ctx context.Context, id uint, autoRenew bool) error
	SetLastIncome(ctx context.Context, id uint, at time.Time) error
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	AccountID *uint
	Type      string
	Status    string
}

// TransactionRepository defines transaction data access. MarkIfPending is the
// conditional status flip guarding the pending -> approved/rejected machine:
// it reports false when the row was no longer pending.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error)
	MarkIfPending(ctx context.Context, id uint, status string, approvedBy uint, reason string, completedAt time.Time) (bool, error)
}

// ReferralRepository defines referral data access. Create must surface
// domain.ErrDuplicateEntry when the referred account already has a row; that
// unique-key rejection is the idempotency boundary for bonus payout.
type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	ExistsPaidByReferred(ctx context.Context, referredID uint) (bool, error)
	ListByReferrer(ctx context.Context, referrerID uint, offset, limit int) ([]*models.Referral, int64, error)
	TotalBonusByReferrer(ctx context.Context, referrerID uint) (float64, error)
}

// ExchangeRateRepository defines exchange rate data access
type ExchangeRateRepository interface {
	Create(ctx context.Context, rate *models.ExchangeRate) error
	GetByCode(ctx context.Context, code string) (*models.ExchangeRate, error)
	GetEnabledByCode(ctx context.Context, code string) (*models.ExchangeRate, error)
	List(ctx context.Context, enabledOnly bool) ([]*models.ExchangeRate, error)
	Update(ctx context.Context, rate *models.ExchangeRate) error
}

// NotificationRepository defines notification data access
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id, accountID uint) error
}

// RefreshTokenRepository defines refresh token data access
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByAccountID(ctx context.Context, accountID uint) error
	DeleteExpired(ctx context.Context) error
}

// Store bundles the repositories behind one storage boundary. InTx runs fn
// against a store whose writes commit or roll back as a unit; operations on
// different aggregates that must stay consistent (debit + membership insert +
// transaction row) go through it.
type Store interface {
	Accounts() AccountRepository
	Products() ProductRepository
	Memberships() MembershipRepository
	Transactions() TransactionRepository
	Referrals() ReferralRepository
	Rates() ExchangeRateRepository
	Notifications() NotificationRepository
	RefreshTokens() RefreshTokenRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

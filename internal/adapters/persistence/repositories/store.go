package repositories

import (
	"context"

	"gorm.io/gorm"
)

// sqlStore is the GORM-backed Store.
type sqlStore struct {
	db            *gorm.DB
	accounts      AccountRepository
	products      ProductRepository
	memberships   MembershipRepository
	transactions  TransactionRepository
	referrals     ReferralRepository
	rates         ExchangeRateRepository
	notifications NotificationRepository
	refreshTokens RefreshTokenRepository
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *gorm.DB) Store {
	return &sqlStore{
		db:            db,
		accounts:      NewAccountRepository(db),
		products:      NewProductRepository(db),
		memberships:   NewMembershipRepository(db),
		transactions:  NewTransactionRepository(db),
		referrals:     NewReferralRepository(db),
		rates:         NewExchangeRateRepository(db),
		notifications: NewNotificationRepository(db),
		refreshTokens: NewRefreshTokenRepository(db),
	}
}

func (s *sqlStore) Accounts() AccountRepository             { return s.accounts }
func (s *sqlStore) Products() ProductRepository             { return s.products }
func (s *sqlStore) Memberships() MembershipRepository       { return s.memberships }
func (s *sqlStore) Transactions() TransactionRepository     { return s.transactions }
func (s *sqlStore) Referrals() ReferralRepository           { return s.referrals }
func (s *sqlStore) Rates() ExchangeRateRepository           { return s.rates }
func (s *sqlStore) Notifications() NotificationRepository   { return s.notifications }
func (s *sqlStore) RefreshTokens() RefreshTokenRepository   { return s.refreshTokens }

// InTx runs fn inside a single database transaction.
func (s *sqlStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

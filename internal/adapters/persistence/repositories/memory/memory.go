// Package memory provides an in-memory implementation of repositories.Store
// for service tests. All maps sit behind one mutex; InTx holds the mutex for
// the whole function and restores a snapshot on error, mirroring the commit
// or roll-back-as-a-unit contract of the SQL store.
package memory

import (
	"context"
	"sync"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
)

type dataset struct {
	accounts      map[uint]models.Account
	products      map[uint]models.Product
	memberships   map[uint]models.Membership
	transactions  map[uint]models.Transaction
	referrals     map[uint]models.Referral
	rates         map[string]models.ExchangeRate
	notifications map[uint]models.Notification
	tokens        map[uint]models.RefreshToken
	seq           uint
}

func newDataset() *dataset {
	return &dataset{
		accounts:      make(map[uint]models.Account),
		products:      make(map[uint]models.Product),
		memberships:   make(map[uint]models.Membership),
		transactions:  make(map[uint]models.Transaction),
		referrals:     make(map[uint]models.Referral),
		rates:         make(map[string]models.ExchangeRate),
		notifications: make(map[uint]models.Notification),
		tokens:        make(map[uint]models.RefreshToken),
	}
}

func (d *dataset) nextID() uint {
	d.seq++
	return d.seq
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		accounts:      copyMap(d.accounts),
		products:      copyMap(d.products),
		memberships:   copyMap(d.memberships),
		transactions:  copyMap(d.transactions),
		referrals:     copyMap(d.referrals),
		rates:         copyMap(d.rates),
		notifications: copyMap(d.notifications),
		tokens:        copyMap(d.tokens),
		seq:           d.seq,
	}
}

// Store is the in-memory repositories.Store.
type Store struct {
	mu   *sync.Mutex
	d    *dataset
	inTx bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, d: newDataset()}
}

// lock acquires the store mutex unless already held by an enclosing InTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Accounts() repositories.AccountRepository           { return &accountRepo{s} }
func (s *Store) Products() repositories.ProductRepository           { return &productRepo{s} }
func (s *Store) Memberships() repositories.MembershipRepository     { return &membershipRepo{s} }
func (s *Store) Transactions() repositories.TransactionRepository   { return &transactionRepo{s} }
func (s *Store) Referrals() repositories.ReferralRepository         { return &referralRepo{s} }
func (s *Store) Rates() repositories.ExchangeRateRepository         { return &rateRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository { return &notificationRepo{s} }
func (s *Store) RefreshTokens() repositories.RefreshTokenRepository { return &tokenRepo{s} }

// InTx serializes the whole function under the store mutex and rolls the
// dataset back to the entry snapshot when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	tx := &Store{mu: s.mu, d: s.d, inTx: true}
	if err := fn(tx); err != nil {
		*s.d = *snapshot
		return err
	}
	return nil
}

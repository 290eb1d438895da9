package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/metrics"
	"nsl-memberhub/internal/pkg/pagination"
)

const expirySweepBatch = 200

// MembershipService handles VIP product purchase, expiry and renewal. The
// debit, the membership insert and the audit row commit as one unit; a failed
// debit leaves no membership behind.
type MembershipService struct {
	store     repositories.Store
	ledger    *LedgerService
	referral  *ReferralService
	notifier  Notifier
	collector *metrics.Collector
}

// NewMembershipService creates a membership service. referral, notifier and
// collector may be nil.
func NewMembershipService(store repositories.Store, ledger *LedgerService, referral *ReferralService, notifier Notifier, collector *metrics.Collector) *MembershipService {
	return &MembershipService{
		store:     store,
		ledger:    ledger,
		referral:  referral,
		notifier:  notifier,
		collector: collector,
	}
}

// Purchase buys a VIP product for the account. The price is debited from the
// NSL balance; on success the account immediately holds an active membership
// and its VIP level reflects the highest-ranked active product.
func (s *MembershipService) Purchase(ctx context.Context, accountID, productID uint) (*models.Membership, error) {
	return s.purchase(ctx, accountID, productID, models.TxTypePurchase, time.Now())
}

// purchase runs the buy flow anchored at a given time. Renewals pass the
// sweep time so the fresh membership's window starts at expiry, not at
// whenever the sweep happened to run.
func (s *MembershipService) purchase(ctx context.Context, accountID, productID uint, txType string, at time.Time) (*models.Membership, error) {
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == models.AccountStatusFrozen {
		return nil, domain.ErrAccountFrozen
	}

	product, err := s.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrProductInactive
	}

	var membership *models.Membership
	err = s.store.InTx(ctx, func(st repositories.Store) error {
		// The locked account row serializes concurrent purchases for this
		// account; without it two transactions could both pass the existence
		// check below and insert duplicate active memberships.
		if _, err := st.Accounts().GetByIDForUpdate(ctx, accountID); err != nil {
			return err
		}

		existing, err := st.Memberships().GetActiveByAccountAndProduct(ctx, accountID, productID)
		if err == nil {
			return &domain.AlreadyOwnedError{ExpiresAt: existing.ExpiresAt}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if _, err := s.ledger.Apply(ctx, st, accountID, domain.NSL(-product.PriceNSL)); err != nil {
			return err
		}

		membership = &models.Membership{
			AccountID:   accountID,
			ProductID:   productID,
			PurchasedAt: at,
			ExpiresAt:   at.AddDate(0, 0, product.ValidityDays),
			Active:      true,
			AutoRenew:   true,
		}
		if err := st.Memberships().Create(ctx, membership); err != nil {
			return err
		}

		if err := s.recomputeVipLevel(ctx, st, accountID); err != nil {
			return err
		}

		completed := at
		return st.Transactions().Create(ctx, &models.Transaction{
			OrderRef:     uuid.NewString(),
			AccountID:    accountID,
			Type:         txType,
			Currency:     string(domain.CurrencyNSL),
			Amount:       product.PriceNSL,
			Status:       models.TxStatusApproved,
			ProductID:    &productID,
			MembershipID: &membership.ID,
			Notes:        fmt.Sprintf("%s %s", txType, product.Name),
			CompletedAt:  &completed,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordPurchase()
	}

	// Bonus payout runs after the purchase commits. A payout failure never
	// unwinds the purchase; the unique referral row keeps a retry safe.
	if s.referral != nil {
		if _, err := s.referral.OnQualifyingPurchase(ctx, accountID, product.PriceNSL); err != nil {
			log.Printf("⚠️ Referral bonus for account %d not paid: %v", accountID, err)
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: accountID,
			Kind:      domain.EventProductPurchased,
			Title:     "Membership activated",
			Message:   fmt.Sprintf("%s is active until %s", product.Name, membership.ExpiresAt.Format("2006-01-02")),
			At:        time.Now(),
		})
	}

	membership.Product = product
	return membership, nil
}

// recomputeVipLevel resets the account's VIP level to the highest-ranked
// product among its active memberships, or back to none.
func (s *MembershipService) recomputeVipLevel(ctx context.Context, st repositories.Store, accountID uint) error {
	active, err := st.Memberships().ListActiveByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	levels := make([]domain.RankedLevel, 0, len(active))
	for _, m := range active {
		if m.Product != nil {
			levels = append(levels, domain.RankedLevel{Name: m.Product.Name, Rank: m.Product.Rank})
		}
	}
	return st.Accounts().UpdateVipLevel(ctx, accountID, domain.HighestVipLevel(levels))
}

// Expire deactivates a membership and recomputes the account's VIP level.
// Already-expired memberships are a no-op.
func (s *MembershipService) Expire(ctx context.Context, membershipID uint) (*models.Membership, error) {
	membership, err := s.store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if !membership.Active {
		return membership, nil
	}

	err = s.store.InTx(ctx, func(st repositories.Store) error {
		if err := st.Memberships().Deactivate(ctx, membershipID); err != nil {
			return err
		}
		return s.recomputeVipLevel(ctx, st, membership.AccountID)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		name := ""
		if membership.Product != nil {
			name = membership.Product.Name
		}
		s.notifier.Notify(domain.Event{
			AccountID: membership.AccountID,
			Kind:      domain.EventMembershipExpired,
			Title:     "Membership expired",
			Message:   fmt.Sprintf("Your %s membership has expired", name),
			At:        time.Now(),
		})
	}
	return s.store.Memberships().GetByID(ctx, membershipID)
}

// ExpireDue sweeps memberships past their expiry. Auto-renew memberships are
// repurchased at the current catalog price when the balance covers it;
// otherwise they simply lapse.
func (s *MembershipService) ExpireDue(ctx context.Context, now time.Time) (expired, renewed int, err error) {
	// A membership whose expiry fails stays due; skip it for the rest of
	// this sweep so the loop terminates, and let the next sweep retry.
	failed := make(map[uint]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return expired, renewed, err
		}

		due, err := s.store.Memberships().ListDueForExpiry(ctx, now, expirySweepBatch)
		if err != nil {
			return expired, renewed, err
		}

		progressed := false
		for _, m := range due {
			if _, skip := failed[m.ID]; skip {
				continue
			}
			if _, err := s.Expire(ctx, m.ID); err != nil {
				log.Printf("❌ Failed to expire membership %d: %v", m.ID, err)
				failed[m.ID] = struct{}{}
				continue
			}
			expired++
			progressed = true

			if !m.AutoRenew {
				continue
			}
			if _, err := s.purchase(ctx, m.AccountID, m.ProductID, models.TxTypeRenewal, now); err != nil {
				if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrProductInactive) {
					continue
				}
				log.Printf("❌ Failed to renew membership %d: %v", m.ID, err)
				continue
			}
			renewed++
		}
		if !progressed {
			return expired, renewed, nil
		}
	}
}

// SetAutoRenew flips auto-renew on one of the account's own memberships.
func (s *MembershipService) SetAutoRenew(ctx context.Context, accountID, membershipID uint, autoRenew bool) error {
	membership, err := s.store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if membership.AccountID != accountID {
		return domain.ErrForbidden
	}
	return s.store.Memberships().SetAutoRenew(ctx, membershipID, autoRenew)
}

// ListByAccount returns an account's memberships, active first.
func (s *MembershipService) ListByAccount(ctx context.Context, accountID uint, params *pagination.Params) ([]*models.Membership, int64, error) {
	return s.store.Memberships().ListByAccount(ctx, accountID, params.Offset, params.Limit)
}

// ListActiveByAccount returns an account's active memberships.
func (s *MembershipService) ListActiveByAccount(ctx context.Context, accountID uint) ([]*models.Membership, error) {
	return s.store.Memberships().ListActiveByAccount(ctx, accountID)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/metrics"
	"nsl-memberhub/internal/pkg/pagination"
)

// ReferralService pays the one-time bonus for a referred account's first
// qualifying purchase. The referral row's unique key on the referred account
// is what makes the payout exactly-once; the percentage was snapshotted onto
// the account at registration so later config changes don't reprice old
// referrals.
type ReferralService struct {
	store     repositories.Store
	ledger    *LedgerService
	notifier  Notifier
	collector *metrics.Collector
}

// NewReferralService creates a referral service. notifier and collector may
// be nil.
func NewReferralService(store repositories.Store, ledger *LedgerService, notifier Notifier, collector *metrics.Collector) *ReferralService {
	return &ReferralService{
		store:     store,
		ledger:    ledger,
		notifier:  notifier,
		collector: collector,
	}
}

// OnQualifyingPurchase pays the referrer's bonus for the buyer's first
// qualifying purchase. Returns (nil, nil) when no bonus is due: the buyer
// has no referrer, the bonus was already paid, or the referrer is gone.
func (s *ReferralService) OnQualifyingPurchase(ctx context.Context, buyerID uint, amountNSL float64) (*models.Referral, error) {
	buyer, err := s.store.Accounts().GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.ReferredBy == nil || *buyer.ReferredBy == "" {
		return nil, nil
	}

	referrer, err := s.store.Accounts().GetByReferralCode(ctx, *buyer.ReferredBy)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if referrer.ID == buyer.ID {
		return nil, nil
	}

	paid, err := s.store.Referrals().ExistsPaidByReferred(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, nil
	}

	pct := buyer.ReferralBonusPct
	if pct <= 0 {
		return nil, nil
	}
	bonus := amountNSL * pct / 100

	referral := &models.Referral{
		ReferrerID:      referrer.ID,
		ReferredID:      buyer.ID,
		BonusNSL:        bonus,
		SourceAmountNSL: amountNSL,
		BonusPercentage: pct,
		Status:          models.ReferralStatusPaid,
	}

	err = s.store.InTx(ctx, func(st repositories.Store) error {
		if err := st.Referrals().Create(ctx, referral); err != nil {
			return err
		}
		if _, err := s.ledger.Apply(ctx, st, referrer.ID, domain.NSL(bonus)); err != nil {
			return err
		}
		now := time.Now()
		return st.Transactions().Create(ctx, &models.Transaction{
			OrderRef:    uuid.NewString(),
			AccountID:   referrer.ID,
			Type:        models.TxTypeReferralBonus,
			Currency:    string(domain.CurrencyNSL),
			Amount:      bonus,
			Status:      models.TxStatusApproved,
			Notes:       fmt.Sprintf("Referral bonus for %s's first purchase", buyer.Username),
			CompletedAt: &now,
		})
	})
	if err != nil {
		// A concurrent payout won the unique-key race; the bonus is settled.
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, nil
		}
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordReferralBonus()
	}
	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: referrer.ID,
			Kind:      domain.EventReferralBonus,
			Title:     "Referral bonus received",
			Message:   fmt.Sprintf("You earned %.2f NSL from %s's first purchase", bonus, buyer.Username),
			At:        time.Now(),
		})
	}
	return referral, nil
}

// ReferralSummary aggregates an account's referral earnings.
type ReferralSummary struct {
	TotalBonusNSL float64            `json:"total_bonus_nsl"`
	Referrals     []*models.Referral `json:"referrals"`
}

// ListByReferrer returns the referrals an account has earned, with totals.
func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID uint, params *pagination.Params) (*ReferralSummary, int64, error) {
	referrals, total, err := s.store.Referrals().ListByReferrer(ctx, referrerID, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	totalBonus, err := s.store.Referrals().TotalBonusByReferrer(ctx, referrerID)
	if err != nil {
		return nil, 0, err
	}
	return &ReferralSummary{TotalBonusNSL: totalBonus, Referrals: referrals}, total, nil
}

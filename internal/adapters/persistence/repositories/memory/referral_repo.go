package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type referralRepo struct {
	s *Store
}

func (r *referralRepo) Create(ctx context.Context, referral *models.Referral) error {
	defer r.s.lock()()

	// Unique constraint on referred_id, as in the SQL schema.
	for _, ref := range r.s.d.referrals {
		if ref.ReferredID == referral.ReferredID {
			return domain.ErrDuplicateEntry
		}
	}

	referral.ID = r.s.d.nextID()
	referral.CreatedAt = time.Now()
	r.s.d.referrals[referral.ID] = *referral
	return nil
}

func (r *referralRepo) ExistsPaidByReferred(ctx context.Context, referredID uint) (bool, error) {
	defer r.s.lock()()

	for _, ref := range r.s.d.referrals {
		if ref.ReferredID == referredID && ref.Status == models.ReferralStatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerID uint, offset, limit int) ([]*models.Referral, int64, error) {
	defer r.s.lock()()

	var all []models.Referral
	for _, ref := range r.s.d.referrals {
		if ref.ReferrerID == referrerID {
			all = append(all, ref)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	out := make([]*models.Referral, 0, end-offset)
	for i := offset; i < end; i++ {
		referral := all[i]
		out = append(out, &referral)
	}
	return out, total, nil
}

func (r *referralRepo) TotalBonusByReferrer(ctx context.Context, referrerID uint) (float64, error) {
	defer r.s.lock()()

	var total float64
	for _, ref := range r.s.d.referrals {
		if ref.ReferrerID == referrerID && ref.Status == models.ReferralStatusPaid {
			total += ref.BonusNSL
		}
	}
	return total, nil
}

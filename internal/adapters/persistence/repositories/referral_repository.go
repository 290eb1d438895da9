package repositories

import (
	"context"
	"errors"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// referralRepository handles referral data access
type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

// Create inserts the referral row. The unique index on referred_id rejects a
// second row for the same referred account; that rejection surfaces as
// domain.ErrDuplicateEntry so callers can treat a retried payout as a no-op.
func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

func (r *referralRepository) ExistsPaidByReferred(ctx context.Context, referredID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referred_id = ? AND status = ?", referredID, models.ReferralStatusPaid).
		Count(&count).Error
	return count > 0, err
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uint, offset, limit int) ([]*models.Referral, int64, error) {
	var referrals []*models.Referral
	var total int64

	r.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Referred").
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&referrals).Error

	return referrals, total, err
}

func (r *referralRepository) TotalBonusByReferrer(ctx context.Context, referrerID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ?", referrerID, models.ReferralStatusPaid).
		Select("COALESCE(SUM(bonus_nsl), 0)").
		Scan(&total).Error
	return total, err
}

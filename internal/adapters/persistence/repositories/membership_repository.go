package repositories

import (
	"context"
	"errors"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// membershipRepository handles membership data access
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *membershipRepository) GetByID(ctx context.Context, id uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&membership, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) GetActiveByAccountAndProduct(ctx context.Context, accountID, productID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND product_id = ? AND active = ?", accountID, productID, true).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) ListActiveByAccount(ctx context.Context, accountID uint) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("account_id = ? AND active = ?", accountID, true).
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.Membership, int64, error) {
	var memberships []*models.Membership
	var total int64

	r.db.WithContext(ctx).Model(&models.Membership{}).Where("account_id = ?", accountID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("account_id = ?", accountID).
		Order("purchased_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&memberships).Error

	return memberships, total, err
}

func (r *membershipRepository) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("active = ? AND expires_at <= ?", true, now).
		Limit(limit).
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) ListIncomeDue(ctx context.Context, dayStart, now time.Time, limit int) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("active = ? AND expires_at > ? AND (last_income_at IS NULL OR last_income_at < ?)", true, now, dayStart).
		Limit(limit).
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *membershipRepository) SetAutoRenew(ctx context.Context, id uint, autoRenew bool) error {
	res := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", id).
		Update("auto_renew", autoRenew)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *membershipRepository) SetLastIncome(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", id).
		Update("last_income_at", at).Error
}

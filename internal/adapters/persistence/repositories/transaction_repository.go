package repositories

import (
	"context"
	"errors"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// transactionRepository handles transaction data access
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&txn, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error) {
	var txns []*models.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query.Count(&total)

	err := query.
		Preload("Product").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error

	return txns, total, err
}

// MarkIfPending flips the status with a conditional update keyed on the
// current pending state. A false return means another approver got there
// first; the row is untouched. The reason lands in its own column; the
// requester's original notes stay intact on the audit row.
func (r *transactionRepository) MarkIfPending(ctx context.Context, id uint, status string, approvedBy uint, reason string, completedAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":       status,
		"approved_by":  approvedBy,
		"completed_at": completedAt,
	}
	if reason != "" {
		updates["reject_reason"] = reason
	}

	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TxStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

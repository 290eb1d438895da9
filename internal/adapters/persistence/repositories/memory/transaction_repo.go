package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
)

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	defer r.s.lock()()

	for _, t := range r.s.d.transactions {
		if t.OrderRef == txn.OrderRef {
			return domain.ErrDuplicateEntry
		}
	}

	txn.ID = r.s.d.nextID()
	txn.CreatedAt = time.Now()
	r.s.d.transactions[txn.ID] = *txn
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	defer r.s.lock()()

	txn, ok := r.s.d.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &txn, nil
}

func (r *transactionRepo) List(ctx context.Context, filter repositories.TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error) {
	defer r.s.lock()()

	var all []models.Transaction
	for _, t := range r.s.d.transactions {
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		all = append(all, t)
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

	out := make([]*models.Transaction, 0, end-offset)
	for i := offset; i < end; i++ {
		txn := all[i]
		out = append(out, &txn)
	}
	return out, total, nil
}

func (r *transactionRepo) MarkIfPending(ctx context.Context, id uint, status string, approvedBy uint, reason string, completedAt time.Time) (bool, error) {
	defer r.s.lock()()

	txn, ok := r.s.d.transactions[id]
	if !ok || txn.Status != models.TxStatusPending {
		return false, nil
	}

	txn.Status = status
	txn.ApprovedBy = &approvedBy
	txn.CompletedAt = &completedAt
	if reason != "" {
		txn.RejectReason = &reason
	}
	r.s.d.transactions[id] = txn
	return true, nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type notificationRepo struct {
	s *Store
}

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	defer r.s.lock()()

	notification.ID = r.s.d.nextID()
	notification.CreatedAt = time.Now()
	r.s.d.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationRepo) ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.Notification, int64, error) {
	defer r.s.lock()()

	var all []models.Notification
	for _, n := range r.s.d.notifications {
		if n.AccountID == accountID {
			all = append(all, n)
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

	out := make([]*models.Notification, 0, end-offset)
	for i := offset; i < end; i++ {
		notification := all[i]
		out = append(out, &notification)
	}
	return out, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, accountID uint) error {
	defer r.s.lock()()

	notification, ok := r.s.d.notifications[id]
	if !ok || notification.AccountID != accountID {
		return domain.ErrNotFound
	}
	notification.Read = true
	r.s.d.notifications[id] = notification
	return nil
}

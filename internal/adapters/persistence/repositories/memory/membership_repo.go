package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type membershipRepo struct {
	s *Store
}

// withProduct mirrors the SQL store's Product preload.
func (r *membershipRepo) withProduct(m models.Membership) *models.Membership {
	if p, ok := r.s.d.products[m.ProductID]; ok {
		product := p
		m.Product = &product
	}
	return &m
}

func (r *membershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	defer r.s.lock()()

	membership.ID = r.s.d.nextID()
	membership.CreatedAt = time.Now()
	r.s.d.memberships[membership.ID] = *membership
	return nil
}

func (r *membershipRepo) GetByID(ctx context.Context, id uint) (*models.Membership, error) {
	defer r.s.lock()()

	membership, ok := r.s.d.memberships[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withProduct(membership), nil
}

func (r *membershipRepo) GetActiveByAccountAndProduct(ctx context.Context, accountID, productID uint) (*models.Membership, error) {
	defer r.s.lock()()

	for _, m := range r.s.d.memberships {
		if m.AccountID == accountID && m.ProductID == productID && m.Active {
			return r.withProduct(m), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *membershipRepo) ListActiveByAccount(ctx context.Context, accountID uint) ([]*models.Membership, error) {
	defer r.s.lock()()
	return r.collect(func(m models.Membership) bool {
		return m.AccountID == accountID && m.Active
	}), nil
}

func (r *membershipRepo) ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.Membership, int64, error) {
	defer r.s.lock()()

	all := r.collect(func(m models.Membership) bool { return m.AccountID == accountID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *membershipRepo) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]*models.Membership, error) {
	defer r.s.lock()()

	out := r.collect(func(m models.Membership) bool {
		return m.Active && !m.ExpiresAt.After(now)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *membershipRepo) ListIncomeDue(ctx context.Context, dayStart, now time.Time, limit int) ([]*models.Membership, error) {
	defer r.s.lock()()

	out := r.collect(func(m models.Membership) bool {
		if !m.Active || !m.ExpiresAt.After(now) {
			return false
		}
		return m.LastIncomeAt == nil || m.LastIncomeAt.Before(dayStart)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *membershipRepo) Deactivate(ctx context.Context, id uint) error {
	defer r.s.lock()()

	membership, ok := r.s.d.memberships[id]
	if !ok || !membership.Active {
		return domain.ErrNotFound
	}
	membership.Active = false
	r.s.d.memberships[id] = membership
	return nil
}

func (r *membershipRepo) SetAutoRenew(ctx context.Context, id uint, autoRenew bool) error {
	defer r.s.lock()()

	membership, ok := r.s.d.memberships[id]
	if !ok {
		return domain.ErrNotFound
	}
	membership.AutoRenew = autoRenew
	r.s.d.memberships[id] = membership
	return nil
}

func (r *membershipRepo) SetLastIncome(ctx context.Context, id uint, at time.Time) error {
	defer r.s.lock()()

	membership, ok := r.s.d.memberships[id]
	if !ok {
		return domain.ErrNotFound
	}
	membership.LastIncomeAt = &at
	r.s.d.memberships[id] = membership
	return nil
}

func (r *membershipRepo) collect(match func(models.Membership) bool) []*models.Membership {
	var out []*models.Membership
	for _, m := range r.s.d.memberships {
		if match(m) {
			out = append(out, r.withProduct(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

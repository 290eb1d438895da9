package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type rateRepo struct {
	s *Store
}

func (r *rateRepo) Create(ctx context.Context, rate *models.ExchangeRate) error {
	defer r.s.lock()()

	code := strings.ToUpper(rate.CurrencyCode)
	if _, ok := r.s.d.rates[code]; ok {
		return domain.ErrDuplicateEntry
	}

	rate.ID = r.s.d.nextID()
	rate.CurrencyCode = code
	rate.CreatedAt = time.Now()
	r.s.d.rates[code] = *rate
	return nil
}

func (r *rateRepo) GetByCode(ctx context.Context, code string) (*models.ExchangeRate, error) {
	defer r.s.lock()()

	rate, ok := r.s.d.rates[strings.ToUpper(code)]
	if !ok {
		return nil, domain.ErrCurrencyNotFound
	}
	return &rate, nil
}

func (r *rateRepo) GetEnabledByCode(ctx context.Context, code string) (*models.ExchangeRate, error) {
	defer r.s.lock()()

	rate, ok := r.s.d.rates[strings.ToUpper(code)]
	if !ok || !rate.Enabled {
		return nil, domain.ErrCurrencyNotFound
	}
	return &rate, nil
}

func (r *rateRepo) List(ctx context.Context, enabledOnly bool) ([]*models.ExchangeRate, error) {
	defer r.s.lock()()

	var out []*models.ExchangeRate
	for _, rate := range r.s.d.rates {
		if enabledOnly && !rate.Enabled {
			continue
		}
		cp := rate
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, nil
}

func (r *rateRepo) Update(ctx context.Context, rate *models.ExchangeRate) error {
	defer r.s.lock()()

	code := strings.ToUpper(rate.CurrencyCode)
	if _, ok := r.s.d.rates[code]; !ok {
		return domain.ErrCurrencyNotFound
	}
	r.s.d.rates[code] = *rate
	return nil
}

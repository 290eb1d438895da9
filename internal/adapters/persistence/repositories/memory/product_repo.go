package memory

import (
	"context"
	"sort"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	defer r.s.lock()()

	for _, p := range r.s.d.products {
		if p.Name == product.Name {
			return domain.ErrDuplicateEntry
		}
	}

	product.ID = r.s.d.nextID()
	product.CreatedAt = time.Now()
	r.s.d.products[product.ID] = *product
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	defer r.s.lock()()

	product, ok := r.s.d.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &product, nil
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	defer r.s.lock()()

	for _, p := range r.s.d.products {
		if p.Name == name {
			product := p
			return &product, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *productRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	defer r.s.lock()()

	for _, p := range r.s.d.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) ListActive(ctx context.Context) ([]*models.Product, error) {
	defer r.s.lock()()
	return r.collect(func(p models.Product) bool { return p.Active }), nil
}

func (r *productRepo) List(ctx context.Context) ([]*models.Product, error) {
	defer r.s.lock()()
	return r.collect(func(models.Product) bool { return true }), nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	defer r.s.lock()()

	if _, ok := r.s.d.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.products[product.ID] = *product
	return nil
}

func (r *productRepo) collect(match func(models.Product) bool) []*models.Product {
	var out []*models.Product
	for _, p := range r.s.d.products {
		if match(p) {
			product := p
			out = append(out, &product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

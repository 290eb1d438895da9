package services

import (
	"context"
	"strings"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
)

// ProductService manages the VIP catalog. Price and validity edits apply to
// future purchases only; existing memberships keep the terms they were
// bought under.
type ProductService struct {
	store repositories.Store
}

// NewProductService creates a product service.
func NewProductService(store repositories.Store) *ProductService {
	return &ProductService{store: store}
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	Name           string  `json:"name"`
	Rank           int     `json:"rank"`
	PriceNSL       float64 `json:"price_nsl"`
	PriceUSDT      float64 `json:"price_usdt"`
	DailyIncomeNSL float64 `json:"daily_income_nsl"`
	ValidityDays   int     `json:"validity_days"`
	Description    string  `json:"description"`
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.Rank <= 0 {
		return domain.ErrValidationFailed
	}
	if in.PriceNSL <= 0 || in.DailyIncomeNSL < 0 || in.ValidityDays <= 0 {
		return domain.ErrValidationFailed
	}
	return nil
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if exists, err := s.store.Products().ExistsByName(ctx, input.Name); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrDuplicateEntry
	}

	product := &models.Product{
		Name:           strings.TrimSpace(input.Name),
		Rank:           input.Rank,
		PriceNSL:       input.PriceNSL,
		PriceUSDT:      input.PriceUSDT,
		DailyIncomeNSL: input.DailyIncomeNSL,
		ValidityDays:   input.ValidityDays,
		Description:    input.Description,
		Active:         true,
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update rewrites a product's terms for future purchases.
func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Rank = input.Rank
	product.PriceNSL = input.PriceNSL
	product.PriceUSDT = input.PriceUSDT
	product.DailyIncomeNSL = input.DailyIncomeNSL
	product.ValidityDays = input.ValidityDays
	product.Description = input.Description

	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetActive enables or disables a product for new purchases. Disabling never
// touches memberships already running on it.
func (s *ProductService) SetActive(ctx context.Context, id uint, active bool) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Active = active
	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListActive returns the purchasable catalog ordered by rank.
func (s *ProductService) ListActive(ctx context.Context) ([]*models.Product, error) {
	return s.store.Products().ListActive(ctx)
}

// List returns the whole catalog including disabled products.
func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	return s.store.Products().List(ctx)
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.store.Products().GetByID(ctx, id)
}

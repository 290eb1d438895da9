package repositories

import (
	"context"
	"errors"
	"strings"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// exchangeRateRepository handles exchange rate data access
type exchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *gorm.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Create(ctx context.Context, rate *models.ExchangeRate) error {
	rate.CurrencyCode = strings.ToUpper(rate.CurrencyCode)
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *exchangeRateRepository) GetByCode(ctx context.Context, code string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("currency_code = ?", strings.ToUpper(code)).
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, err
	}
	return &rate, nil
}

func (r *exchangeRateRepository) GetEnabledByCode(ctx context.Context, code string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("currency_code = ? AND enabled = ?", strings.ToUpper(code), true).
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, err
	}
	return &rate, nil
}

func (r *exchangeRateRepository) List(ctx context.Context, enabledOnly bool) ([]*models.ExchangeRate, error) {
	var rates []*models.ExchangeRate
	query := r.db.WithContext(ctx).Order("currency_code ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	err := query.Find(&rates).Error
	return rates, err
}

func (r *exchangeRateRepository) Update(ctx context.Context, rate *models.ExchangeRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}

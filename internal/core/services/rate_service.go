package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
)

// RateService converts between display currencies through the USD pivot and
// manages the per-currency feed/override rate pair. RateToUSD and USDPerUnit
// always hold the currently-active rate, so conversion never needs to know
// which source is live.
type RateService struct {
	store repositories.Store
}

// NewRateService creates a rate service.
func NewRateService(store repositories.Store) *RateService {
	return &RateService{store: store}
}

// Convert converts an amount between two enabled currencies via USD.
// Same-currency conversion returns the amount unchanged.
func (s *RateService) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}

	usd := amount
	if from != "USD" {
		fromRate, err := s.store.Rates().GetEnabledByCode(ctx, from)
		if err != nil {
			return 0, err
		}
		usd = amount * fromRate.USDPerUnit
	}
	if to == "USD" {
		return usd, nil
	}

	toRate, err := s.store.Rates().GetEnabledByCode(ctx, to)
	if err != nil {
		return 0, err
	}
	return usd * toRate.RateToUSD, nil
}

// SetOverride pins a currency to an admin-supplied rate. The feed keeps
// updating underneath but stops affecting conversion until the override is
// cleared.
func (s *RateService) SetOverride(ctx context.Context, code string, rate float64, reason string, adminID uint) (*models.ExchangeRate, error) {
	if rate <= 0 {
		return nil, domain.ErrValidationFailed
	}

	record, err := s.store.Rates().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record.AdminOverrideRate = &rate
	record.ActiveRateSource = models.RateSourceAdmin
	record.RateToUSD = rate
	record.USDPerUnit = 1 / rate
	record.OverrideSetBy = &adminID
	record.OverrideSetAt = &now
	if reason != "" {
		record.OverrideReason = &reason
	} else {
		record.OverrideReason = nil
	}

	if err := s.store.Rates().Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ClearOverride returns a currency to its feed rate. Fails when no feed rate
// was ever recorded, because clearing would leave the currency with no
// usable rate at all.
func (s *RateService) ClearOverride(ctx context.Context, code string) (*models.ExchangeRate, error) {
	record, err := s.store.Rates().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if record.FeedRate == nil {
		return nil, domain.ErrNoFeedRate
	}

	record.ActiveRateSource = models.RateSourceFeed
	record.RateToUSD = *record.FeedRate
	record.USDPerUnit = 1 / *record.FeedRate
	record.AdminOverrideRate = nil
	record.OverrideSetBy = nil
	record.OverrideReason = nil
	record.OverrideSetAt = nil

	if err := s.store.Rates().Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SetFeedRate records a fresh feed quote. While an admin override is active
// the quote is stored but the active rate columns stay pinned.
func (s *RateService) SetFeedRate(ctx context.Context, code string, rate float64, at time.Time) (*models.ExchangeRate, error) {
	if rate <= 0 {
		return nil, domain.ErrValidationFailed
	}

	record, err := s.store.Rates().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	record.FeedRate = &rate
	record.LastFeedUpdate = &at
	if record.ActiveRateSource == models.RateSourceFeed {
		record.RateToUSD = rate
		record.USDPerUnit = 1 / rate
	}

	if err := s.store.Rates().Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CurrencyInput is the admin payload for creating or updating a currency.
type CurrencyInput struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	RateToUSD float64 `json:"rate_to_usd"`
	Enabled   *bool   `json:"enabled"`
}

// Upsert creates a currency or updates its base fields. The supplied rate is
// treated as a feed quote; an active admin override is left pinned.
func (s *RateService) Upsert(ctx context.Context, input CurrencyInput) (*models.ExchangeRate, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" || input.RateToUSD <= 0 {
		return nil, domain.ErrValidationFailed
	}

	record, err := s.store.Rates().GetByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrCurrencyNotFound) {
			return nil, err
		}
		now := time.Now()
		rate := input.RateToUSD
		record = &models.ExchangeRate{
			CurrencyCode:     code,
			CurrencyName:     input.Name,
			CurrencySymbol:   input.Symbol,
			RateToUSD:        rate,
			USDPerUnit:       1 / rate,
			FeedRate:         &rate,
			ActiveRateSource: models.RateSourceFeed,
			LastFeedUpdate:   &now,
			Enabled:          true,
		}
		if input.Enabled != nil {
			record.Enabled = *input.Enabled
		}
		if err := s.store.Rates().Create(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	if input.Name != "" {
		record.CurrencyName = input.Name
	}
	if input.Symbol != "" {
		record.CurrencySymbol = input.Symbol
	}
	if input.Enabled != nil {
		record.Enabled = *input.Enabled
	}
	now := time.Now()
	rate := input.RateToUSD
	record.FeedRate = &rate
	record.LastFeedUpdate = &now
	if record.ActiveRateSource == models.RateSourceFeed {
		record.RateToUSD = rate
		record.USDPerUnit = 1 / rate
	}

	if err := s.store.Rates().Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// List returns currencies, optionally only the enabled ones.
func (s *RateService) List(ctx context.Context, enabledOnly bool) ([]*models.ExchangeRate, error) {
	return s.store.Rates().List(ctx, enabledOnly)
}

// Get returns one currency by code, enabled or not.
func (s *RateService) Get(ctx context.Context, code string) (*models.ExchangeRate, error) {
	return s.store.Rates().GetByCode(ctx, code)
}

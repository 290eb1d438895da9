package config

import (
	"log"

	"gorm.io/gorm"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedProducts(); err != nil {
		return err
	}
	if err := s.seedCurrencies(); err != nil {
		return err
	}
	if err := s.seedSuperAdmin(); err != nil {
		log.Printf("⚠️ Superadmin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedProducts seeds the VIP catalog. Existing rows are left untouched so
// admin price edits survive restarts.
func (s *Seeder) seedProducts() error {
	products := []models.Product{
		{Name: "VIP1", Rank: 1, PriceNSL: 100, PriceUSDT: 4, DailyIncomeNSL: 3, ValidityDays: 60},
		{Name: "VIP2", Rank: 2, PriceNSL: 300, PriceUSDT: 12, DailyIncomeNSL: 10, ValidityDays: 60},
		{Name: "VIP3", Rank: 3, PriceNSL: 600, PriceUSDT: 24, DailyIncomeNSL: 21, ValidityDays: 60},
		{Name: "VIP4", Rank: 4, PriceNSL: 1200, PriceUSDT: 48, DailyIncomeNSL: 44, ValidityDays: 60},
		{Name: "VIP5", Rank: 5, PriceNSL: 2500, PriceUSDT: 100, DailyIncomeNSL: 95, ValidityDays: 60},
		{Name: "VIP6", Rank: 6, PriceNSL: 5000, PriceUSDT: 200, DailyIncomeNSL: 200, ValidityDays: 60},
		{Name: "VIP7", Rank: 7, PriceNSL: 10000, PriceUSDT: 400, DailyIncomeNSL: 420, ValidityDays: 60},
		{Name: "VIP8", Rank: 8, PriceNSL: 20000, PriceUSDT: 800, DailyIncomeNSL: 880, ValidityDays: 60},
		{Name: "VIP9", Rank: 9, PriceNSL: 50000, PriceUSDT: 2000, DailyIncomeNSL: 2300, ValidityDays: 60},
	}

	for _, p := range products {
		var count int64
		s.db.Model(&models.Product{}).Where("name = ?", p.Name).Count(&count)
		if count > 0 {
			continue
		}
		product := p
		product.Active = true
		if err := s.db.Create(&product).Error; err != nil {
			return err
		}
		log.Printf("✅ Product seeded: %s", product.Name)
	}
	return nil
}

// seedCurrencies seeds the display currencies with starter rates. The feed
// or an admin takes over from there.
func (s *Seeder) seedCurrencies() error {
	currencies := []models.ExchangeRate{
		{CurrencyCode: "USD", CurrencyName: "US Dollar", CurrencySymbol: "$", RateToUSD: 1},
		{CurrencyCode: "NGN", CurrencyName: "Nigerian Naira", CurrencySymbol: "₦", RateToUSD: 1600},
		{CurrencyCode: "GBP", CurrencyName: "British Pound", CurrencySymbol: "£", RateToUSD: 0.79},
		{CurrencyCode: "EUR", CurrencyName: "Euro", CurrencySymbol: "€", RateToUSD: 0.92},
		{CurrencyCode: "GHS", CurrencyName: "Ghanaian Cedi", CurrencySymbol: "₵", RateToUSD: 15.5},
		{CurrencyCode: "ZAR", CurrencyName: "South African Rand", CurrencySymbol: "R", RateToUSD: 18.2},
	}

	for _, c := range currencies {
		var count int64
		s.db.Model(&models.ExchangeRate{}).Where("currency_code = ?", c.CurrencyCode).Count(&count)
		if count > 0 {
			continue
		}
		rate := c
		feed := rate.RateToUSD
		rate.USDPerUnit = 1 / rate.RateToUSD
		rate.FeedRate = &feed
		rate.ActiveRateSource = models.RateSourceFeed
		rate.Enabled = true
		if err := s.db.Create(&rate).Error; err != nil {
			return err
		}
		log.Printf("✅ Currency seeded: %s", rate.CurrencyCode)
	}
	return nil
}

// seedSuperAdmin seeds the default superadmin account
// This is for development/testing only
// In production, create the superadmin through a secure process
func (s *Seeder) seedSuperAdmin() error {
	var count int64
	s.db.Model(&models.Account{}).Where("role = ?", models.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash(getEnv("SUPERADMIN_PASSWORD", "admin123456"))
	if err != nil {
		return err
	}

	admin := &models.Account{
		Phone:        getEnv("SUPERADMIN_PHONE", "10000000000"),
		Username:     "superadmin",
		Email:        getEnv("SUPERADMIN_EMAIL", "admin@nslmemberhub.com"),
		Password:     hashedPassword,
		Role:         models.RoleSuperAdmin,
		Status:       models.AccountStatusActive,
		VipLevel:     "none",
		ReferralCode: "SUPERADM",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Superadmin account created: %s", admin.Username)
	return nil
}

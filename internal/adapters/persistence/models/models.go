package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Accounts & Auth
// ============================================================

// Account roles
const (
	RoleUser       = "USER"
	RoleFinance    = "FINANCE"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// Account statuses
const (
	AccountStatusPending = "pending"
	AccountStatusActive  = "active"
	AccountStatusFrozen  = "frozen"
)

// Account represents accounts table. Balance columns are only ever mutated
// through conditional increments, never overwritten from request payloads.
type Account struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Phone            string         `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	Username         string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email            string         `gorm:"size:100;index" json:"email"`
	Password         string         `gorm:"size:255;not null" json:"-"`
	Role             string         `gorm:"size:20;default:'USER'" json:"role"`
	Status           string         `gorm:"size:20;default:'pending';index" json:"status"`
	BalanceNSL       float64        `gorm:"type:decimal(20,2);not null;default:0" json:"balance_nsl"`
	BalanceUSDT      float64        `gorm:"type:decimal(20,2);not null;default:0" json:"balance_usdt"`
	VipLevel         string         `gorm:"size:20;default:'none'" json:"vip_level"`
	ReferralCode     string         `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredBy       *string        `gorm:"size:16;index" json:"referred_by"`
	ReferralBonusPct float64        `gorm:"type:decimal(5,2);not null;default:0" json:"referral_bonus_pct"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountResponse DTO
type AccountResponse struct {
	ID           uint      `json:"id"`
	Phone        string    `json:"phone"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	BalanceNSL   float64   `json:"balance_nsl"`
	BalanceUSDT  float64   `json:"balance_usdt"`
	VipLevel     string    `json:"vip_level"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   *string   `json:"referred_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		Phone:        a.Phone,
		Username:     a.Username,
		Email:        a.Email,
		Role:         a.Role,
		Status:       a.Status,
		BalanceNSL:   a.BalanceNSL,
		BalanceUSDT:  a.BalanceUSDT,
		VipLevel:     a.VipLevel,
		ReferralCode: a.ReferralCode,
		ReferredBy:   a.ReferredBy,
		CreatedAt:    a.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID uint       `gorm:"index;not null" json:"account_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	Account   Account    `gorm:"foreignKey:AccountID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog & Memberships
// ============================================================

// Product represents the VIP catalog. Rank is the catalog's total order used
// to derive the account membership level. Price edits never touch existing
// memberships.
type Product struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"uniqueIndex;size:20;not null" json:"name"`
	Rank           int            `gorm:"not null;uniqueIndex" json:"rank"`
	PriceNSL       float64        `gorm:"type:decimal(20,2);not null" json:"price_nsl"`
	PriceUSDT      float64        `gorm:"type:decimal(20,2);not null;default:0" json:"price_usdt"`
	DailyIncomeNSL float64        `gorm:"type:decimal(20,2);not null" json:"daily_income_nsl"`
	ValidityDays   int            `gorm:"not null;default:60" json:"validity_days"`
	Description    string         `gorm:"type:text" json:"description"`
	Active         bool           `gorm:"default:true" json:"active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// Membership represents memberships table. Rows are never deleted; expiry
// flips Active off and the row stays for history.
type Membership struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AccountID    uint       `gorm:"not null;index" json:"account_id"`
	ProductID    uint       `gorm:"not null;index" json:"product_id"`
	PurchasedAt  time.Time  `gorm:"not null" json:"purchased_at"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expires_at"`
	Active       bool       `gorm:"default:true;index" json:"active"`
	AutoRenew    bool       `gorm:"default:true" json:"auto_renew"`
	LastIncomeAt *time.Time `json:"last_income_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}

// MembershipResponse DTO
type MembershipResponse struct {
	ID          uint      `json:"id"`
	AccountID   uint      `json:"account_id"`
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	PurchasedAt time.Time `json:"purchased_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Active      bool      `json:"active"`
	AutoRenew   bool      `json:"auto_renew"`
}

func (m *Membership) ToResponse() *MembershipResponse {
	resp := &MembershipResponse{
		ID:          m.ID,
		AccountID:   m.AccountID,
		ProductID:   m.ProductID,
		PurchasedAt: m.PurchasedAt,
		ExpiresAt:   m.ExpiresAt,
		Active:      m.Active,
		AutoRenew:   m.AutoRenew,
	}
	if m.Product != nil {
		resp.ProductName = m.Product.Name
	}
	return resp
}

// ============================================================
// Transactions
// ============================================================

// Transaction types
const (
	TxTypeRecharge      = "recharge"
	TxTypeWithdrawal    = "withdrawal"
	TxTypeIncome        = "income"
	TxTypeReferralBonus = "referral_bonus"
	TxTypePurchase      = "purchase"
	TxTypeRenewal       = "renewal"
)

// Transaction statuses; approved and rejected are terminal.
const (
	TxStatusPending  = "pending"
	TxStatusApproved = "approved"
	TxStatusRejected = "rejected"
)

// Transaction is the append-only audit record. Every balance mutation pairs
// with exactly one row; OrderRef doubles as the idempotency token.
type Transaction struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	OrderRef     string     `gorm:"uniqueIndex;size:40;not null" json:"order_ref"`
	AccountID    uint       `gorm:"not null;index" json:"account_id"`
	Type         string     `gorm:"size:20;not null;index" json:"type"`
	Currency     string     `gorm:"size:10;not null" json:"currency"`
	Amount       float64    `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProductID    *uint      `gorm:"index" json:"product_id"`
	MembershipID *uint      `gorm:"index" json:"membership_id"`
	ApprovedBy   *uint      `json:"approved_by"`
	Notes        string     `gorm:"type:text" json:"notes"`
	RejectReason *string    `gorm:"type:text" json:"reject_reason,omitempty"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Account  *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Product  *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Approver *Account `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) IsPending() bool {
	return t.Status == TxStatusPending
}

// ============================================================
// Referrals
// ============================================================

// Referral statuses
const (
	ReferralStatusPending = "pending"
	ReferralStatusPaid    = "paid"
)

// Referral records the one-time bonus for a referred account's first
// qualifying purchase. The unique index on ReferredID is the guard that keeps
// a retried or concurrent payout from ever paying twice.
type Referral struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReferrerID      uint      `gorm:"not null;index" json:"referrer_id"`
	ReferredID      uint      `gorm:"not null;uniqueIndex" json:"referred_id"`
	BonusNSL        float64   `gorm:"type:decimal(20,2);not null" json:"bonus_nsl"`
	SourceAmountNSL float64   `gorm:"type:decimal(20,2);not null" json:"source_amount_nsl"`
	BonusPercentage float64   `gorm:"type:decimal(5,2);not null" json:"bonus_percentage"`
	Status          string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Referrer *Account `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referred *Account `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ============================================================
// Exchange rates
// ============================================================

// Exchange rate sources
const (
	RateSourceFeed  = "feed"
	RateSourceAdmin = "admin"
)

// ExchangeRate holds one currency's conversion against the USD pivot.
// RateToUSD and USDPerUnit are always recomputed together when the active
// source changes, never independently.
type ExchangeRate struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CurrencyCode      string     `gorm:"uniqueIndex;size:10;not null" json:"currency_code"`
	CurrencyName      string     `gorm:"size:50;not null" json:"currency_name"`
	CurrencySymbol    string     `gorm:"size:10;default:'$'" json:"currency_symbol"`
	RateToUSD         float64    `gorm:"type:decimal(20,8);not null" json:"rate_to_usd"`
	USDPerUnit        float64    `gorm:"type:decimal(20,8);not null" json:"usd_per_unit"`
	FeedRate          *float64   `gorm:"type:decimal(20,8)" json:"feed_rate"`
	AdminOverrideRate *float64   `gorm:"type:decimal(20,8)" json:"admin_override_rate"`
	ActiveRateSource  string     `gorm:"size:10;not null;default:'feed'" json:"active_rate_source"`
	OverrideSetBy     *uint      `json:"override_set_by"`
	OverrideReason    *string    `gorm:"type:text" json:"override_reason"`
	OverrideSetAt     *time.Time `json:"override_set_at"`
	LastFeedUpdate    *time.Time `json:"last_feed_update"`
	Enabled           bool       `gorm:"default:true;index" json:"enabled"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// ============================================================
// Notifications
// ============================================================

// Notification is the persisted copy of a dispatched domain event.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Kind      string    `gorm:"size:30;not null" json:"kind"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&RefreshToken{},
		&Product{},
		&Membership{},
		&Transaction{},
		&Referral{},
		&ExchangeRate{},
		&Notification{},
	)
}

package domain

import "time"

// EventKind classifies a domain event for notification templating.
type EventKind string

const (
	EventTransactionApproved EventKind = "transaction_approved"
	EventTransactionRejected EventKind = "transaction_rejected"
	EventProductPurchased    EventKind = "product_purchased"
	EventMembershipExpired   EventKind = "membership_expired"
	EventReferralBonus       EventKind = "referral_bonus"
	EventDailyIncome         EventKind = "daily_income"
	EventAccountStatus       EventKind = "account_status"
)

// Event is emitted by the core services after a state change commits.
// Delivery is fire-and-forget; the core never depends on who consumes it.
type Event struct {
	AccountID uint      `json:"account_id"`
	Kind      EventKind `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

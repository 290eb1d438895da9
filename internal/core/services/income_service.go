package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
)

const incomeSweepBatch = 200

// IncomeService credits each active membership its product's daily income.
// LastIncomeAt is the at-most-once-per-day guard; the credit, the audit row
// and the stamp commit together so a crashed run never double-pays.
type IncomeService struct {
	store    repositories.Store
	ledger   *LedgerService
	notifier Notifier
}

// NewIncomeService creates an income service. notifier may be nil.
func NewIncomeService(store repositories.Store, ledger *LedgerService, notifier Notifier) *IncomeService {
	return &IncomeService{store: store, ledger: ledger, notifier: notifier}
}

// CreditDailyIncome pays today's income to every active membership not yet
// paid today. Per-membership failures are logged and skipped; the sweep
// keeps going.
func (s *IncomeService) CreditDailyIncome(ctx context.Context, now time.Time) (credited int, err error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// A membership that fails stays due, so it is skipped for the rest of
	// this sweep or the loop would re-fetch it forever. The next sweep
	// retries it.
	failed := make(map[uint]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return credited, err
		}

		due, err := s.store.Memberships().ListIncomeDue(ctx, dayStart, now, incomeSweepBatch)
		if err != nil {
			return credited, err
		}

		progressed := false
		for _, m := range due {
			if _, skip := failed[m.ID]; skip {
				continue
			}
			if m.Product == nil || m.Product.DailyIncomeNSL <= 0 {
				if err := s.store.Memberships().SetLastIncome(ctx, m.ID, now); err != nil {
					log.Printf("❌ Failed to stamp membership %d: %v", m.ID, err)
					failed[m.ID] = struct{}{}
					continue
				}
				progressed = true
				continue
			}
			if err := s.creditOne(ctx, m, now); err != nil {
				log.Printf("❌ Failed to credit income for membership %d: %v", m.ID, err)
				failed[m.ID] = struct{}{}
				continue
			}
			credited++
			progressed = true
		}
		if !progressed {
			return credited, nil
		}
	}
}

func (s *IncomeService) creditOne(ctx context.Context, m *models.Membership, now time.Time) error {
	amount := m.Product.DailyIncomeNSL
	err := s.store.InTx(ctx, func(st repositories.Store) error {
		if _, err := s.ledger.Apply(ctx, st, m.AccountID, domain.NSL(amount)); err != nil {
			return err
		}
		membershipID := m.ID
		productID := m.ProductID
		if err := st.Transactions().Create(ctx, &models.Transaction{
			OrderRef:     uuid.NewString(),
			AccountID:    m.AccountID,
			Type:         models.TxTypeIncome,
			Currency:     string(domain.CurrencyNSL),
			Amount:       amount,
			Status:       models.TxStatusApproved,
			ProductID:    &productID,
			MembershipID: &membershipID,
			Notes:        fmt.Sprintf("Daily income from %s", m.Product.Name),
			CompletedAt:  &now,
		}); err != nil {
			return err
		}
		return st.Memberships().SetLastIncome(ctx, m.ID, now)
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: m.AccountID,
			Kind:      domain.EventDailyIncome,
			Title:     "Daily income credited",
			Message:   fmt.Sprintf("%.2f NSL daily income from %s", amount, m.Product.Name),
			At:        time.Now(),
		})
	}
	return nil
}

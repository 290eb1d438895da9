package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
)

// BatchReport is the per-target outcome of a batch operation. One target
// failing never stops or rolls back the others.
type BatchReport struct {
	Succeeded []uint         `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// BatchFailure pairs a failed target with its reason.
type BatchFailure struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

func (r *BatchReport) ok(id uint) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BatchReport) fail(id uint, err error) {
	r.Failed = append(r.Failed, BatchFailure{ID: id, Error: err.Error()})
}

// BatchService runs admin operations over many targets with per-target
// isolation. Each target settles in its own transaction.
type BatchService struct {
	store    repositories.Store
	approval *ApprovalService
	ledger   *LedgerService
	notifier Notifier
}

// NewBatchService creates a batch service. notifier may be nil.
func NewBatchService(store repositories.Store, approval *ApprovalService, ledger *LedgerService, notifier Notifier) *BatchService {
	return &BatchService{
		store:    store,
		approval: approval,
		ledger:   ledger,
		notifier: notifier,
	}
}

// ApproveTransactions approves each pending request independently.
func (s *BatchService) ApproveTransactions(ctx context.Context, txnIDs []uint, approverID uint) (*BatchReport, error) {
	if len(txnIDs) == 0 {
		return nil, domain.ErrValidationFailed
	}

	report := &BatchReport{Succeeded: []uint{}, Failed: []BatchFailure{}}
	for _, id := range txnIDs {
		if _, err := s.approval.Approve(ctx, id, approverID); err != nil {
			report.fail(id, err)
			continue
		}
		report.ok(id)
	}
	return report, nil
}

// RejectTransactions rejects each pending request independently with one
// shared reason.
func (s *BatchService) RejectTransactions(ctx context.Context, txnIDs []uint, approverID uint, reason string) (*BatchReport, error) {
	if len(txnIDs) == 0 || reason == "" {
		return nil, domain.ErrValidationFailed
	}

	report := &BatchReport{Succeeded: []uint{}, Failed: []BatchFailure{}}
	for _, id := range txnIDs {
		if _, err := s.approval.Reject(ctx, id, approverID, reason); err != nil {
			report.fail(id, err)
			continue
		}
		report.ok(id)
	}
	return report, nil
}

// AddCurrency credits the same amount to many accounts, writing a settled
// audit row per account. The reason is required and lands in every row.
func (s *BatchService) AddCurrency(ctx context.Context, accountIDs []uint, money domain.Money, reason string, adminID uint) (*BatchReport, error) {
	if len(accountIDs) == 0 {
		return nil, domain.ErrValidationFailed
	}
	if len(reason) < 5 {
		return nil, domain.ErrValidationFailed
	}
	if err := money.Validate(); err != nil {
		return nil, err
	}

	report := &BatchReport{Succeeded: []uint{}, Failed: []BatchFailure{}}
	for _, id := range accountIDs {
		accountID := id
		err := s.store.InTx(ctx, func(st repositories.Store) error {
			if _, err := s.ledger.Apply(ctx, st, accountID, money); err != nil {
				return err
			}
			now := time.Now()
			return st.Transactions().Create(ctx, &models.Transaction{
				OrderRef:    uuid.NewString(),
				AccountID:   accountID,
				Type:        models.TxTypeRecharge,
				Currency:    string(money.Currency),
				Amount:      money.Amount,
				Status:      models.TxStatusApproved,
				ApprovedBy:  &adminID,
				Notes:       reason,
				CompletedAt: &now,
			})
		})
		if err != nil {
			report.fail(accountID, err)
			continue
		}
		report.ok(accountID)

		if s.notifier != nil {
			s.notifier.Notify(domain.Event{
				AccountID: accountID,
				Kind:      domain.EventTransactionApproved,
				Title:     "Balance credited",
				Message:   fmt.Sprintf("%.2f %s was added to your wallet: %s", money.Amount, money.Currency, reason),
				At:        time.Now(),
			})
		}
	}
	return report, nil
}

// SetAccountStatus moves many accounts to one status. Superadmin accounts
// are refused per target rather than failing the batch.
func (s *BatchService) SetAccountStatus(ctx context.Context, accountIDs []uint, status, reason string) (*BatchReport, error) {
	if len(accountIDs) == 0 {
		return nil, domain.ErrValidationFailed
	}
	switch status {
	case models.AccountStatusActive, models.AccountStatusFrozen, models.AccountStatusPending:
	default:
		return nil, domain.ErrValidationFailed
	}

	report := &BatchReport{Succeeded: []uint{}, Failed: []BatchFailure{}}
	for _, id := range accountIDs {
		account, err := s.store.Accounts().GetByID(ctx, id)
		if err != nil {
			report.fail(id, err)
			continue
		}
		if account.Role == models.RoleSuperAdmin {
			report.fail(id, domain.ErrForbidden)
			continue
		}
		if err := s.store.Accounts().UpdateStatus(ctx, id, status); err != nil {
			report.fail(id, err)
			continue
		}
		report.ok(id)

		if s.notifier != nil {
			message := fmt.Sprintf("Your account status changed to %s", status)
			if reason != "" {
				message = fmt.Sprintf("%s: %s", message, reason)
			}
			s.notifier.Notify(domain.Event{
				AccountID: id,
				Kind:      domain.EventAccountStatus,
				Title:     "Account status updated",
				Message:   message,
				At:        time.Now(),
			})
		}
	}
	return report, nil
}

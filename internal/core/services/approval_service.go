package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/metrics"
	"nsl-memberhub/internal/pkg/pagination"
)

// ApprovalService runs the deposit/withdrawal workflow. Requests are created
// pending and money only moves when an approver flips them; the flip and the
// balance mutation commit together, so an uncoverable withdrawal leaves the
// request pending instead of half-settled.
type ApprovalService struct {
	store     repositories.Store
	ledger    *LedgerService
	notifier  Notifier
	collector *metrics.Collector
}

// NewApprovalService creates an approval service. notifier and collector may
// be nil.
func NewApprovalService(store repositories.Store, ledger *LedgerService, notifier Notifier, collector *metrics.Collector) *ApprovalService {
	return &ApprovalService{
		store:     store,
		ledger:    ledger,
		notifier:  notifier,
		collector: collector,
	}
}

// CreateRequest files a pending deposit or withdrawal. No balance moves yet;
// a withdrawal larger than the current balance is still accepted here and
// judged at approval time.
func (s *ApprovalService) CreateRequest(ctx context.Context, accountID uint, txType string, money domain.Money, notes string) (*models.Transaction, error) {
	if txType != models.TxTypeRecharge && txType != models.TxTypeWithdrawal {
		return nil, domain.ErrInvalidTransactionType
	}
	if err := money.Validate(); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == models.AccountStatusFrozen {
		return nil, domain.ErrAccountFrozen
	}

	txn := &models.Transaction{
		OrderRef:  uuid.NewString(),
		AccountID: accountID,
		Type:      txType,
		Currency:  string(money.Currency),
		Amount:    money.Amount,
		Status:    models.TxStatusPending,
		Notes:     notes,
	}
	if err := s.store.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Approve settles a pending request. Deposits credit, withdrawals debit. The
// status flip is conditional on the row still being pending, so concurrent
// approve/reject calls race to exactly one winner. A withdrawal the balance
// cannot cover rolls the whole approval back and the request stays pending.
func (s *ApprovalService) Approve(ctx context.Context, txnID, approverID uint) (*models.Transaction, error) {
	txn, err := s.store.Transactions().GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if !txn.IsPending() {
		return nil, domain.ErrNotPending
	}

	err = s.store.InTx(ctx, func(st repositories.Store) error {
		now := time.Now()
		flipped, err := st.Transactions().MarkIfPending(ctx, txnID, models.TxStatusApproved, approverID, "", now)
		if err != nil {
			return err
		}
		if !flipped {
			return domain.ErrNotPending
		}

		money := domain.Money{Currency: domain.Currency(txn.Currency), Amount: txn.Amount}
		switch txn.Type {
		case models.TxTypeRecharge:
			_, err = s.ledger.Apply(ctx, st, txn.AccountID, money)
		case models.TxTypeWithdrawal:
			_, err = s.ledger.Apply(ctx, st, txn.AccountID, money.Negate())
		default:
			err = domain.ErrInvalidTransactionType
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordWorkflowResult(models.TxStatusApproved)
	}
	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: txn.AccountID,
			Kind:      domain.EventTransactionApproved,
			Title:     "Request approved",
			Message:   fmt.Sprintf("Your %s of %.2f %s was approved", txn.Type, txn.Amount, txn.Currency),
			At:        time.Now(),
		})
	}
	return s.store.Transactions().GetByID(ctx, txnID)
}

// Reject closes a pending request without moving money. A reason is
// required; it is recorded alongside the requester's original notes.
func (s *ApprovalService) Reject(ctx context.Context, txnID, approverID uint, reason string) (*models.Transaction, error) {
	if reason == "" {
		return nil, domain.ErrValidationFailed
	}

	txn, err := s.store.Transactions().GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if !txn.IsPending() {
		return nil, domain.ErrNotPending
	}

	flipped, err := s.store.Transactions().MarkIfPending(ctx, txnID, models.TxStatusRejected, approverID, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, domain.ErrNotPending
	}

	if s.collector != nil {
		s.collector.RecordWorkflowResult(models.TxStatusRejected)
	}
	if s.notifier != nil {
		s.notifier.Notify(domain.Event{
			AccountID: txn.AccountID,
			Kind:      domain.EventTransactionRejected,
			Title:     "Request rejected",
			Message:   fmt.Sprintf("Your %s of %.2f %s was rejected: %s", txn.Type, txn.Amount, txn.Currency, reason),
			At:        time.Now(),
		})
	}
	return s.store.Transactions().GetByID(ctx, txnID)
}

// ListPending returns pending requests for the review queue, optionally
// narrowed to one type.
func (s *ApprovalService) ListPending(ctx context.Context, txType string, params *pagination.Params) ([]*models.Transaction, int64, error) {
	filter := repositories.TransactionFilter{
		Type:   txType,
		Status: models.TxStatusPending,
	}
	return s.store.Transactions().List(ctx, filter, params.Offset, params.Limit)
}

// Get returns one transaction by id.
func (s *ApprovalService) Get(ctx context.Context, txnID uint) (*models.Transaction, error) {
	return s.store.Transactions().GetByID(ctx, txnID)
}

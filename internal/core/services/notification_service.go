package services

import (
	"context"
	"log"
	"sync"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/pkg/pagination"
)

// Notifier receives domain events after the state change that produced them
// has committed. Implementations must never block the caller.
type Notifier interface {
	Notify(event domain.Event)
}

// NotificationService persists domain events as notifications and fans them
// out to live subscribers through the registry. Dispatch runs on a single
// background goroutine; Notify only enqueues.
type NotificationService struct {
	store    repositories.Store
	registry *Registry

	queue  chan domain.Event
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewNotificationService creates a notification dispatcher.
func NewNotificationService(store repositories.Store, registry *Registry) *NotificationService {
	return &NotificationService{
		store:    store,
		registry: registry,
		queue:    make(chan domain.Event, 256),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the dispatch loop.
func (s *NotificationService) Start() {
	s.wg.Add(1)
	go s.dispatchLoop()
	log.Println("✅ Notification dispatcher started")
}

// Stop drains nothing; in-flight events already dequeued finish, queued ones
// are dropped. Safe to call once.
func (s *NotificationService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("✅ Notification dispatcher stopped")
}

// Notify enqueues an event for dispatch. Drops the event when the queue is
// full so a stalled dispatcher can never stall the ledger.
func (s *NotificationService) Notify(event domain.Event) {
	select {
	case s.queue <- event:
	default:
		log.Printf("⚠️ Notification queue full, dropping %s for account %d", event.Kind, event.AccountID)
	}
}

func (s *NotificationService) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case event := <-s.queue:
			s.dispatch(event)
		case <-s.stopCh:
			return
		}
	}
}

func (s *NotificationService) dispatch(event domain.Event) {
	notification := &models.Notification{
		AccountID: event.AccountID,
		Kind:      string(event.Kind),
		Title:     event.Title,
		Message:   event.Message,
	}
	if err := s.store.Notifications().Create(context.Background(), notification); err != nil {
		log.Printf("❌ Failed to persist notification for account %d: %v", event.AccountID, err)
	}
	s.registry.Publish(event)
}

// Subscribe registers a live listener for one account's events.
func (s *NotificationService) Subscribe(accountID uint) (<-chan domain.Event, func()) {
	return s.registry.Subscribe(accountID)
}

// List returns an account's persisted notifications, newest first.
func (s *NotificationService) List(ctx context.Context, accountID uint, params *pagination.Params) ([]*models.Notification, int64, error) {
	return s.store.Notifications().ListByAccount(ctx, accountID, params.Offset, params.Limit)
}

// MarkRead marks one of the account's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, accountID uint) error {
	return s.store.Notifications().MarkRead(ctx, id, accountID)
}

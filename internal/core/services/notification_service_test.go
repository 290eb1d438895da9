package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsl-memberhub/internal/adapters/persistence/repositories/memory"
	"nsl-memberhub/internal/core/domain"
)

func TestRegistryDeliversToOwnAccountOnly(t *testing.T) {
	registry := NewRegistry()

	aliceCh, cancelAlice := registry.Subscribe(1)
	defer cancelAlice()
	bobCh, cancelBob := registry.Subscribe(2)
	defer cancelBob()

	registry.Publish(domain.Event{AccountID: 1, Kind: domain.EventDailyIncome, Title: "for alice"})

	select {
	case event := <-aliceCh:
		assert.Equal(t, "for alice", event.Title)
	case <-time.After(time.Second):
		t.Fatal("alice never received her event")
	}

	select {
	case event := <-bobCh:
		t.Fatalf("bob received alice's event: %v", event)
	default:
	}
}

func TestRegistryCancelClosesChannel(t *testing.T) {
	registry := NewRegistry()

	ch, cancel := registry.Subscribe(1)
	assert.Equal(t, 1, registry.SubscriberCount(1))

	cancel()
	assert.Equal(t, 0, registry.SubscriberCount(1))

	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent and publish to a gone subscriber is a no-op.
	cancel()
	registry.Publish(domain.Event{AccountID: 1, Kind: domain.EventDailyIncome})
}

func TestRegistrySkipsSlowSubscribers(t *testing.T) {
	registry := NewRegistry()

	ch, cancel := registry.Subscribe(1)
	defer cancel()

	// Nobody reads; the buffer fills and further publishes are dropped
	// instead of blocking.
	for i := 0; i < 50; i++ {
		registry.Publish(domain.Event{AccountID: 1, Kind: domain.EventDailyIncome})
	}
	assert.Equal(t, 16, len(ch))
}

func TestNotificationDispatchPersistsAndFansOut(t *testing.T) {
	store := memory.NewStore()
	registry := NewRegistry()
	svc := NewNotificationService(store, registry)
	svc.Start()
	defer svc.Stop()

	ch, cancel := svc.Subscribe(7)
	defer cancel()

	svc.Notify(domain.Event{
		AccountID: 7,
		Kind:      domain.EventTransactionApproved,
		Title:     "Deposit approved",
		Message:   "100.00 USDT credited",
		At:        time.Now(),
	})

	select {
	case event := <-ch:
		assert.Equal(t, domain.EventTransactionApproved, event.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}

	// Dispatch persists before it publishes, so the row exists by now.
	notifications, total, err := store.Notifications().ListByAccount(context.Background(), 7, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Deposit approved", notifications[0].Title)
	assert.False(t, notifications[0].Read)

	require.NoError(t, svc.MarkRead(context.Background(), notifications[0].ID, 7))
	notifications, _, err = store.Notifications().ListByAccount(context.Background(), 7, 0, 10)
	require.NoError(t, err)
	assert.True(t, notifications[0].Read)
}

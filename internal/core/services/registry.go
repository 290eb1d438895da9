package services

import (
	"sync"

	"nsl-memberhub/internal/core/domain"
)

// Registry fans domain events out to live subscribers. Subscriptions are
// keyed by account so a delivery loop only sees its own account's events.
type Registry struct {
	mu   sync.RWMutex
	subs map[uint]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan domain.Event
}

// NewRegistry creates an empty subscriber registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[uint]map[*subscriber]struct{}),
	}
}

// Subscribe registers a listener for one account's events. The returned
// cancel func must be called when the listener goes away; after cancel the
// channel is closed and no further events arrive on it.
func (r *Registry) Subscribe(accountID uint) (<-chan domain.Event, func()) {
	sub := &subscriber{ch: make(chan domain.Event, 16)}

	r.mu.Lock()
	if r.subs[accountID] == nil {
		r.subs[accountID] = make(map[*subscriber]struct{})
	}
	r.subs[accountID][sub] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if set, ok := r.subs[accountID]; ok {
			if _, live := set[sub]; live {
				delete(set, sub)
				close(sub.ch)
			}
			if len(set) == 0 {
				delete(r.subs, accountID)
			}
		}
		r.mu.Unlock()
	}

	return sub.ch, cancel
}

// Publish delivers an event to every live subscriber of its account.
// Slow subscribers are skipped rather than blocked on; a missed live
// event is still readable from the persisted notification list.
func (r *Registry) Publish(event domain.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sub := range r.subs[event.AccountID] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// SubscriberCount reports live subscribers for an account.
func (r *Registry) SubscriberCount(accountID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[accountID])
}

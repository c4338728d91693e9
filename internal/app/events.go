package app

import (
	"sync"

	"lectio-quiz-service/internal/domain"
)

// ProfileEvents fans persisted profile snapshots out to per-account
// subscribers. Web clients use it to refresh streak/points UI without
// polling.
type ProfileEvents struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Profile]struct{}
}

func NewProfileEvents() *ProfileEvents {
	return &ProfileEvents{
		subscribers: make(map[string]map[chan domain.Profile]struct{}),
	}
}

// Subscribe returns a channel receiving profile updates for the
// account. The caller must invoke the returned cancel function to avoid
// leaks.
func (e *ProfileEvents) Subscribe(accountID string) (<-chan domain.Profile, func()) {
	ch := make(chan domain.Profile, 8)

	e.mu.Lock()
	subs, ok := e.subscribers[accountID]
	if !ok {
		subs = make(map[chan domain.Profile]struct{})
		e.subscribers[accountID] = subs
	}
	subs[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if subs, ok := e.subscribers[accountID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(e.subscribers, accountID)
			}
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the snapshot to every subscriber of the account.
// Slow subscribers lose the stale update, never block the publisher.
func (e *ProfileEvents) Publish(p domain.Profile) {
	if e == nil {
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for ch := range e.subscribers[p.AccountID] {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}

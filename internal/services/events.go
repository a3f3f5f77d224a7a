package services

import (
	"sync"

	"pumarket/internal/domain"
)

type EventKind string

const (
	EventSignIn      EventKind = "sign_in"
	EventSignOut     EventKind = "sign_out"
	EventSignUp      EventKind = "sign_up"
	EventRoleGranted EventKind = "role_granted"
	EventRoleRevoked EventKind = "role_revoked"
)

// SessionEvent describes a change to who is signed in or what they may do.
type SessionEvent struct {
	Kind      EventKind
	UserID    string
	SessionID string
	Role      domain.Role
	ActorID   string
}

type Observer func(SessionEvent)

// EventBus delivers session events synchronously to every subscriber.
type EventBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Observer
}

func NewEventBus() *EventBus { return &EventBus{subs: make(map[int]Observer)} }

// Subscribe registers fn and returns a function that removes it.
func (b *EventBus) Subscribe(fn Observer) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *EventBus) Publish(ev SessionEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]Observer, 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

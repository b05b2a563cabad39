package identity

import (
	"context"
	"sync"
)

// Handler receives session-change events. The session is nil for
// EventSignedOut.
type Handler func(event EventType, session *Session)

// Client is the contract the gateway consumes from the identity provider
type Client interface {
	// CurrentSession returns the current session, or nil when signed out
	CurrentSession(ctx context.Context) (*Session, error)

	// SetSession installs a credential pair. Callers must not treat its
	// completion as sign-in; the authoritative signal is the SIGNED_IN
	// event delivered through OnSessionChange.
	SetSession(ctx context.Context, creds CredentialPair) error

	// SignOut terminates the provider session and emits EventSignedOut
	SignOut(ctx context.Context) error

	// OnSessionChange registers a handler for session-change events.
	// Every subscriber must release the returned subscription.
	OnSessionChange(handler Handler) *Subscription
}

// Subscription is a handle to a registered session-change handler
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps a cancel function for Client implementations
// outside this package.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe releases the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// dispatcher fans session-change events out to subscribers in registration
// order. Emission is synchronous so subscribers observe events in the order
// the provider produced them.
type dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[int]Handler)}
}

func (d *dispatcher) subscribe(handler Handler) *Subscription {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers[id] = handler
	d.mu.Unlock()

	return &Subscription{cancel: func() {
		d.mu.Lock()
		delete(d.handlers, id)
		d.mu.Unlock()
	}}
}

func (d *dispatcher) emit(event EventType, session *Session) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	// registration order
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, d.handlers[id])
	}
	d.mu.Unlock()

	for _, handler := range handlers {
		handler(event, session)
	}
}

func (d *dispatcher) subscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

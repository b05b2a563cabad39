package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherEmitOrder(t *testing.T) {
	d := newDispatcher()

	var order []string
	d.subscribe(func(event EventType, _ *Session) {
		order = append(order, "first:"+string(event))
	})
	d.subscribe(func(event EventType, _ *Session) {
		order = append(order, "second:"+string(event))
	})

	d.emit(EventSignedIn, &Session{})
	d.emit(EventSignedOut, nil)

	assert.Equal(t, []string{
		"first:SIGNED_IN",
		"second:SIGNED_IN",
		"first:SIGNED_OUT",
		"second:SIGNED_OUT",
	}, order)
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := newDispatcher()

	var calls int
	sub := d.subscribe(func(EventType, *Session) { calls++ })

	d.emit(EventSignedIn, nil)
	require.Equal(t, 1, calls)

	sub.Unsubscribe()
	d.emit(EventSignedIn, nil)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, d.subscriberCount())

	// Unsubscribe is idempotent
	sub.Unsubscribe()
}

func TestDispatcherUnsubscribeDuringEmit(t *testing.T) {
	d := newDispatcher()

	var sub *Subscription
	var calls int
	sub = d.subscribe(func(EventType, *Session) {
		calls++
		sub.Unsubscribe()
	})

	d.emit(EventSignedIn, nil)
	d.emit(EventSignedIn, nil)
	assert.Equal(t, 1, calls)
}

func TestSessionCompanyID(t *testing.T) {
	sess := &Session{User: Identity{Metadata: map[string]string{"company_id": "acme-1"}}}
	assert.Equal(t, "acme-1", sess.CompanyID())

	assert.Empty(t, (&Session{}).CompanyID())
	var nilSess *Session
	assert.Empty(t, nilSess.CompanyID())
}

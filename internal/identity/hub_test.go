package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	var a, b []Event
	unsubA := hub.Subscribe(func(e Event) { a = append(a, e) })
	unsubB := hub.Subscribe(func(e Event) { b = append(b, e) })
	defer unsubB()

	hub.Publish(Event{Kind: SignedIn, Session: Session{UID: "u1"}})
	unsubA()
	unsubA()
	hub.Publish(Event{Kind: SignedOut, Session: Session{UID: "u1"}})

	assert.Len(t, a, 1)
	assert.Len(t, b, 2)
	assert.Equal(t, SignedOut, b[1].Kind)
	assert.Equal(t, 1, hub.Len())
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "signed_in", SignedIn.String())
	assert.Equal(t, "signed_out", SignedOut.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithSession(context.Background(), Session{}))
	assert.False(t, ok)

	s, ok := FromContext(WithSession(context.Background(), Session{UID: "u1", Email: "a@b.co"}))
	assert.True(t, ok)
	assert.Equal(t, "a@b.co", s.Email)
}

// Package identity wraps credential sign-in/up/out, session retrieval and
// a subscription to session-change notifications.
package identity

import (
	"context"
	"sync"
)

type Identity struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventSignedOut      Event = "signed_out"
	EventTokenRefreshed Event = "token_refreshed"
)

// Provider is the session side of the identity adapter. Sign-in/up/out are
// pass-throughs on the concrete Service; the session layer only needs these.
type Provider interface {
	// GetSession resolves an access token to the current identity.
	// Absent, expired or malformed tokens resolve to (nil, nil).
	GetSession(ctx context.Context, accessToken string) (*Identity, error)
	OnSessionChange(fn func(Event, *Identity)) *Subscription
}

type Subscription struct {
	once sync.Once
	stop func()
}

// NewSubscription wraps a release func; alternate Provider
// implementations use it to hand out subscriptions.
func NewSubscription(stop func()) *Subscription {
	return &Subscription{stop: stop}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// notifier fans session-change events out to subscribers. Delivery is
// synchronous: a sign-out is observable by every subscriber before the
// triggering call returns.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event, *Identity)
}

func (n *notifier) subscribe(fn func(Event, *Identity)) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(Event, *Identity))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return &Subscription{stop: func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}}
}

func (n *notifier) notify(event Event, ident *Identity) {
	n.mu.Lock()
	fns := make([]func(Event, *Identity), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(event, ident)
	}
}

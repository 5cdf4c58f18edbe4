package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/store"
)

// Manager keys one State per signed-in user. It listens to the identity
// provider so that sign-outs tear sessions down even when no request is
// in flight.
type Manager struct {
	provider identity.Provider
	store    store.Store
	log      *slog.Logger

	mu     sync.Mutex
	states map[uint]*State
	sub    *identity.Subscription
}

func NewManager(provider identity.Provider, st store.Store, log *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		store:    st,
		log:      log,
		states:   make(map[uint]*State),
	}
}

func (m *Manager) Start() {
	m.sub = m.provider.OnSessionChange(m.handleSessionChange)
}

func (m *Manager) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
}

func (m *Manager) handleSessionChange(event identity.Event, ident *identity.Identity) {
	if event == identity.EventSignedOut {
		if ident == nil {
			return
		}
		m.mu.Lock()
		state, ok := m.states[ident.UserID]
		delete(m.states, ident.UserID)
		m.mu.Unlock()
		if ok {
			state.HandleSessionChange(event, nil)
		}
		return
	}

	if ident == nil {
		return
	}
	state := m.getOrCreate(ident.UserID)
	state.HandleSessionChange(event, ident)
}

// Resolve returns the State for an access token, building one when the
// token is valid but no state exists yet (for example after a restart).
// A nil State with a nil error means no session.
func (m *Manager) Resolve(ctx context.Context, accessToken string) (*State, error) {
	ident, err := m.provider.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, nil
	}

	m.mu.Lock()
	state, ok := m.states[ident.UserID]
	m.mu.Unlock()
	if ok {
		return state, nil
	}

	state = m.getOrCreate(ident.UserID)
	if err := state.Initialize(ctx, accessToken); err != nil {
		return nil, err
	}
	return state, nil
}

func (m *Manager) getOrCreate(userID uint) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[userID]; ok {
		return state
	}
	state := New(m.provider, m.store, m.log)
	m.states[userID] = state
	return state
}

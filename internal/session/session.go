// Package session holds who is signed in and whether they are an admin,
// rebuilt whenever the identity provider reports a change.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/permission"
	"github.com/avelasov/techstore/internal/store"
	"github.com/avelasov/techstore/internal/syncer"
)

// State is the single source of truth for one authenticated session.
// Profile and role lookups that fail degrade to an empty profile and the
// least-privileged role; they are logged, never propagated.
type State struct {
	provider identity.Provider
	store    store.Store
	log      *slog.Logger

	mu      sync.Mutex
	ident   *identity.Identity
	profile store.Profile
	role    permission.Role
	isAdmin bool
	loading bool
	syncer  *syncer.Syncer
	sub     *identity.Subscription
}

func New(provider identity.Provider, st store.Store, log *slog.Logger) *State {
	return &State{
		provider: provider,
		store:    st,
		log:      log,
		role:     permission.RoleCustomer,
		syncer:   syncer.New(st),
	}
}

// Initialize resolves the current session from accessToken and, when an
// identity is present, loads its profile and role. Loading stays true
// until the lookups finish.
func (s *State) Initialize(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	ident, err := s.provider.GetSession(ctx, accessToken)
	if err != nil || ident == nil {
		s.clear()
		return err
	}

	s.applyIdentity(ctx, ident)
	return nil
}

// Subscribe attaches this state to the provider's session-change feed.
// Close releases the subscription.
func (s *State) Subscribe() {
	s.sub = s.provider.OnSessionChange(s.HandleSessionChange)
}

func (s *State) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}

// HandleSessionChange reacts to the identity provider. An absent
// identity clears profile, role and admin flag synchronously, with no
// network round trip. A new identity re-runs the profile and role load.
func (s *State) HandleSessionChange(event identity.Event, ident *identity.Identity) {
	if event == identity.EventSignedOut || ident == nil {
		s.clear()
		return
	}

	s.mu.Lock()
	same := s.ident != nil && s.ident.UserID == ident.UserID
	s.mu.Unlock()
	if event == identity.EventTokenRefreshed && same {
		return
	}

	s.applyIdentity(context.Background(), ident)
}

// applyIdentity loads profile and role in parallel and flips loading off
// when both settle.
func (s *State) applyIdentity(ctx context.Context, ident *identity.Identity) {
	s.mu.Lock()
	s.ident = ident
	s.loading = true
	s.mu.Unlock()

	var (
		wg      sync.WaitGroup
		profile *store.Profile
		role    string
		pErr    error
		rErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, pErr = s.store.GetProfile(ctx, ident.UserID)
	}()
	go func() {
		defer wg.Done()
		role, rErr = s.store.GetRole(ctx, ident.UserID)
	}()
	wg.Wait()

	if pErr != nil {
		s.log.Warn("profile_load_failed", "user_id", ident.UserID, "error", pErr)
		profile = &store.Profile{Email: ident.Email}
	}
	if rErr != nil {
		s.log.Warn("role_load_failed", "user_id", ident.UserID, "error", rErr)
		role = string(permission.RoleCustomer)
	}

	resolved := permission.RoleFromName(role)

	s.mu.Lock()
	s.profile = *profile
	s.role = resolved
	s.isAdmin = permission.IsAdmin(resolved)
	s.loading = false
	s.mu.Unlock()

	if err := s.syncer.Bind(ctx, ident.UserID); err != nil {
		s.log.Warn("snapshot_load_failed", "user_id", ident.UserID, "error", err)
	}
}

// clear drops everything synchronously; the syncer goes back to empty.
func (s *State) clear() {
	s.mu.Lock()
	s.ident = nil
	s.profile = store.Profile{}
	s.role = permission.RoleCustomer
	s.isAdmin = false
	s.loading = false
	s.mu.Unlock()
	s.syncer.Reset()
}

func (s *State) Identity() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident
}

func (s *State) Profile() store.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *State) Role() permission.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *State) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// HasPermission checks the current role against the static permission
// table. It involves no network call.
func (s *State) HasPermission(token permission.Token) bool {
	return permission.Has(s.Role(), token)
}

func (s *State) Syncer() *syncer.Syncer {
	return s.syncer
}

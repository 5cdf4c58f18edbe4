package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/permission"
	"github.com/avelasov/techstore/internal/store"
)

type fakeStore struct {
	mu    sync.Mutex
	calls int

	role       string
	roleErr    error
	profile    store.Profile
	profileErr error

	cart     map[uint]uint
	wishlist map[uint]bool
}

func newSessionFakeStore() *fakeStore {
	return &fakeStore{
		role:     "customer",
		cart:     make(map[uint]uint),
		wishlist: make(map[uint]bool),
	}
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeStore) GetRole(ctx context.Context, userID uint) (string, error) {
	f.bump()
	return f.role, f.roleErr
}

func (f *fakeStore) GetProfile(ctx context.Context, userID uint) (*store.Profile, error) {
	f.bump()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := f.profile
	return &p, nil
}

func (f *fakeStore) ListCartLines(ctx context.Context, userID uint) ([]store.CartLine, error) {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]store.CartLine, 0, len(f.cart))
	for id, qty := range f.cart {
		lines = append(lines, store.CartLine{ProductID: id, Quantity: qty})
	}
	return lines, nil
}

func (f *fakeStore) CountCartLines(ctx context.Context, userID uint) (int, error) {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cart), nil
}

func (f *fakeStore) AddCartLine(ctx context.Context, userID, productID, quantity uint) error {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart[productID] = quantity
	return nil
}

func (f *fakeStore) RemoveCartLine(ctx context.Context, userID, productID uint) error {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cart, productID)
	return nil
}

func (f *fakeStore) ListWishlist(ctx context.Context, userID uint) ([]store.WishlistEntry, error) {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]store.WishlistEntry, 0, len(f.wishlist))
	for id := range f.wishlist {
		entries = append(entries, store.WishlistEntry{ProductID: id})
	}
	return entries, nil
}

func (f *fakeStore) CountWishlist(ctx context.Context, userID uint) (int, error) {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.wishlist), nil
}

func (f *fakeStore) ToggleWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	f.bump()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wishlist[productID] {
		delete(f.wishlist, productID)
		return false, nil
	}
	f.wishlist[productID] = true
	return true, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*identity.Identity
	subs     []func(identity.Event, *identity.Identity)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*identity.Identity)}
}

func (p *fakeProvider) GetSession(ctx context.Context, accessToken string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[accessToken], nil
}

func (p *fakeProvider) OnSessionChange(fn func(identity.Event, *identity.Identity)) *identity.Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.subs)
	p.subs = append(p.subs, fn)
	return identity.NewSubscription(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.subs[i] = nil
	})
}

func (p *fakeProvider) emit(event identity.Event, ident *identity.Identity) {
	p.mu.Lock()
	fns := append([]func(identity.Event, *identity.Identity){}, p.subs...)
	p.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(event, ident)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeWithoutSession(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	st := newSessionFakeStore()
	state := New(provider, st, discardLogger())

	require.NoError(t, state.Initialize(context.Background(), ""))
	assert.Nil(t, state.Identity())
	assert.False(t, state.Loading())
	assert.False(t, state.IsAdmin())
	assert.Equal(t, permission.RoleCustomer, state.Role())
}

func TestInitializeLoadsProfileRoleAndSnapshot(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	provider.sessions["tok"] = &identity.Identity{UserID: 7, Email: "ada@example.com"}

	st := newSessionFakeStore()
	st.role = "admin"
	st.profile = store.Profile{Name: "Ada", Email: "ada@example.com"}
	st.cart[3] = 2

	state := New(provider, st, discardLogger())
	require.NoError(t, state.Initialize(context.Background(), "tok"))

	require.NotNil(t, state.Identity())
	assert.Equal(t, uint(7), state.Identity().UserID)
	assert.Equal(t, "Ada", state.Profile().Name)
	assert.Equal(t, permission.RoleAdmin, state.Role())
	assert.True(t, state.IsAdmin())
	assert.False(t, state.Loading())
	assert.True(t, state.HasPermission(permission.ManageProducts))
	assert.Equal(t, 1, state.Syncer().CartCount())
}

func TestRoleLoadFailureDegradesToLeastPrivileged(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	provider.sessions["tok"] = &identity.Identity{UserID: 7}

	st := newSessionFakeStore()
	st.role = "superadmin"
	st.roleErr = errors.New("role service down")

	state := New(provider, st, discardLogger())
	require.NoError(t, state.Initialize(context.Background(), "tok"))

	assert.Equal(t, permission.RoleCustomer, state.Role())
	assert.False(t, state.IsAdmin())
	assert.False(t, state.HasPermission(permission.ViewDashboard))
	assert.False(t, state.Loading())
}

func TestProfileLoadFailureDegradesToEmptyProfile(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	provider.sessions["tok"] = &identity.Identity{UserID: 7, Email: "ada@example.com"}

	st := newSessionFakeStore()
	st.profileErr = errors.New("profile service down")

	state := New(provider, st, discardLogger())
	require.NoError(t, state.Initialize(context.Background(), "tok"))

	assert.Equal(t, "ada@example.com", state.Profile().Email)
	assert.Empty(t, state.Profile().Name)
	assert.False(t, state.Loading())
}

func TestSignOutClearsEverythingSynchronouslyWithoutNetwork(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	provider.sessions["tok"] = &identity.Identity{UserID: 7}

	st := newSessionFakeStore()
	st.role = "admin"
	st.cart[1] = 1
	st.wishlist[2] = true

	state := New(provider, st, discardLogger())
	require.NoError(t, state.Initialize(context.Background(), "tok"))
	require.Equal(t, 1, state.Syncer().CartCount())
	require.Equal(t, 1, state.Syncer().WishlistCount())

	before := st.count()
	state.HandleSessionChange(identity.EventSignedOut, nil)

	assert.Equal(t, before, st.count())
	assert.Nil(t, state.Identity())
	assert.False(t, state.IsAdmin())
	assert.Equal(t, permission.RoleCustomer, state.Role())
	assert.Equal(t, 0, state.Syncer().CartCount())
	assert.Equal(t, 0, state.Syncer().WishlistCount())
}

func TestCloseReleasesSubscription(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	provider.sessions["tok"] = &identity.Identity{UserID: 7}

	st := newSessionFakeStore()
	state := New(provider, st, discardLogger())
	require.NoError(t, state.Initialize(context.Background(), "tok"))
	state.Subscribe()
	state.Close()

	provider.emit(identity.EventSignedOut, nil)
	assert.NotNil(t, state.Identity(), "events after Close must not reach the state")
}

func TestManagerResolvesAndTearsDownSessions(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider()
	ident := &identity.Identity{UserID: 7, Email: "ada@example.com"}
	provider.sessions["tok"] = ident

	st := newSessionFakeStore()
	st.role = "admin"

	m := NewManager(provider, st, discardLogger())
	m.Start()
	defer m.Close()

	guest, err := m.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, guest)

	state, err := m.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.IsAdmin())

	again, err := m.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Same(t, state, again)

	provider.emit(identity.EventSignedOut, ident)
	assert.Nil(t, state.Identity())
	assert.Equal(t, 0, state.Syncer().CartCount())
}

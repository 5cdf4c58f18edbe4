// Package syncer keeps client-side copies of a user's cart and wishlist
// in step with the remote data service. Every mutation calls the remote
// store first and then re-fetches the authoritative collection; no
// optimistic update is applied, so a failed mutation leaves the snapshot
// at its last known-good value.
package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/avelasov/techstore/internal/store"
)

// RemoteStore is the slice of the data service the synchronizer needs.
type RemoteStore interface {
	store.CartStore
	store.WishlistStore
}

// Syncer owns the snapshot for one identity. Consumers read counts and
// call mutations; they never touch the collections directly. Concurrent
// mutations on the same resource are not serialized here: their remote
// calls race and the last reconciliation fetch wins. The per-resource
// loading flags exist so consumers can disable controls while a mutation
// is in flight.
type Syncer struct {
	store RemoteStore

	mu              sync.Mutex
	userID          uint // 0 means no identity
	cart            []store.CartLine
	wishlist        []store.WishlistEntry
	cartCount       int
	wishlistCount   int
	cartLoading     bool
	wishlistLoading bool
}

func New(s RemoteStore) *Syncer {
	return &Syncer{store: s}
}

// Bind attaches the syncer to an identity and loads both collections.
// The session layer calls it on sign-in.
func (s *Syncer) Bind(ctx context.Context, userID uint) error {
	s.mu.Lock()
	s.userID = userID
	s.cartLoading = true
	s.wishlistLoading = true
	s.mu.Unlock()

	cartErr := s.RefreshCart(ctx)
	wishErr := s.RefreshWishlist(ctx)
	if cartErr != nil {
		return cartErr
	}
	return wishErr
}

// Reset drops the identity and both snapshots synchronously. Only the
// session layer calls it, on identity loss. No remote call is made.
func (s *Syncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = 0
	s.cart = nil
	s.wishlist = nil
	s.cartCount = 0
	s.wishlistCount = 0
	s.cartLoading = false
	s.wishlistLoading = false
}

func (s *Syncer) CartLines() []store.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Syncer) WishlistEntries() []store.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.WishlistEntry, len(s.wishlist))
	copy(out, s.wishlist)
	return out
}

func (s *Syncer) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartCount
}

func (s *Syncer) WishlistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlistCount
}

func (s *Syncer) CartLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLoading
}

func (s *Syncer) WishlistLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlistLoading
}

// IsInWishlist is a pure snapshot lookup. It may be stale between a
// mutation and its reconciliation fetch.
func (s *Syncer) IsInWishlist(productID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.wishlist {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

// AddToCart inserts or replaces the line for productID. Quantity must be
// a positive integer; it is not clamped here.
func (s *Syncer) AddToCart(ctx context.Context, productID uint, quantity int) error {
	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("quantity must be a positive integer: %w", ErrRemoteRejected)
	}

	s.setCartLoading(true)
	defer s.setCartLoading(false)

	if err := s.store.AddCartLine(ctx, userID, productID, uint(quantity)); err != nil {
		return classify(err)
	}
	return s.RefreshCart(ctx)
}

// RemoveFromCart is idempotent: removing a product that is not in the
// cart succeeds and leaves the count unchanged.
func (s *Syncer) RemoveFromCart(ctx context.Context, productID uint) error {
	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}

	s.setCartLoading(true)
	defer s.setCartLoading(false)

	if err := s.store.RemoveCartLine(ctx, userID, productID); err != nil {
		return classify(err)
	}
	return s.RefreshCart(ctx)
}

// UpdateCartQuantity sets the quantity for productID. A quantity of zero
// or less is equivalent to RemoveFromCart. Otherwise the line is removed
// and re-added with the new quantity; between the two remote calls the
// product is briefly absent from the cart, and a concurrent reader can
// observe that. If the add half fails after a successful remove the item
// stays gone and the error says so, so the caller can prompt a retry
// instead of assuming the old quantity survived.
func (s *Syncer) UpdateCartQuantity(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}

	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}

	s.setCartLoading(true)
	defer s.setCartLoading(false)

	if err := s.store.RemoveCartLine(ctx, userID, productID); err != nil {
		return classify(err)
	}
	if err := s.store.AddCartLine(ctx, userID, productID, uint(quantity)); err != nil {
		refreshErr := s.RefreshCart(ctx)
		if refreshErr != nil {
			return refreshErr
		}
		return fmt.Errorf("item was removed but re-adding with quantity %d failed: %w", quantity, classify(err))
	}
	return s.RefreshCart(ctx)
}

// ClearCart removes every current line concurrently, then reconciles
// once. On partial failure the cart is left in whatever state the server
// ended up in and ErrPartialFailure is reported.
func (s *Syncer) ClearCart(ctx context.Context) error {
	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}

	s.mu.Lock()
	lines := make([]store.CartLine, len(s.cart))
	copy(lines, s.cart)
	s.cartLoading = true
	s.mu.Unlock()
	defer s.setCartLoading(false)

	errs := make([]error, len(lines))
	var wg sync.WaitGroup
	for i, line := range lines {
		wg.Add(1)
		go func(i int, productID uint) {
			defer wg.Done()
			errs[i] = s.store.RemoveCartLine(ctx, userID, productID)
		}(i, line.ProductID)
	}
	wg.Wait()

	refreshErr := s.RefreshCart(ctx)

	var failed int
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed: %w", failed, len(lines), ErrPartialFailure)
	}
	return refreshErr
}

// ToggleWishlist flips membership for productID through the store's
// atomic toggle and reports whether the product is now present.
func (s *Syncer) ToggleWishlist(ctx context.Context, productID uint) (bool, error) {
	userID, err := s.requireIdentity()
	if err != nil {
		return false, err
	}

	s.setWishlistLoading(true)
	defer s.setWishlistLoading(false)

	nowPresent, err := s.store.ToggleWishlist(ctx, userID, productID)
	if err != nil {
		return false, classify(err)
	}
	if err := s.RefreshWishlist(ctx); err != nil {
		return nowPresent, err
	}
	return nowPresent, nil
}

// RefreshCart re-fetches the cart collection and count, replacing the
// snapshot. Handlers also call it on route re-entry to force
// reconciliation.
func (s *Syncer) RefreshCart(ctx context.Context) error {
	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}

	lines, err := s.store.ListCartLines(ctx, userID)
	if err != nil {
		s.setCartLoading(false)
		return classify(err)
	}
	count, err := s.store.CountCartLines(ctx, userID)
	if err != nil {
		s.setCartLoading(false)
		return classify(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		// Identity changed mid-fetch; drop the stale result.
		return nil
	}
	s.cart = lines
	s.cartCount = count
	s.cartLoading = false
	return nil
}

func (s *Syncer) RefreshWishlist(ctx context.Context) error {
	userID, err := s.requireIdentity()
	if err != nil {
		return err
	}

	entries, err := s.store.ListWishlist(ctx, userID)
	if err != nil {
		s.setWishlistLoading(false)
		return classify(err)
	}
	count, err := s.store.CountWishlist(ctx, userID)
	if err != nil {
		s.setWishlistLoading(false)
		return classify(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return nil
	}
	s.wishlist = entries
	s.wishlistCount = count
	s.wishlistLoading = false
	return nil
}

func (s *Syncer) requireIdentity() (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == 0 {
		return 0, ErrNotAuthenticated
	}
	return s.userID, nil
}

func (s *Syncer) setCartLoading(v bool) {
	s.mu.Lock()
	s.cartLoading = v
	s.mu.Unlock()
}

func (s *Syncer) setWishlistLoading(v bool) {
	s.mu.Lock()
	s.wishlistLoading = v
	s.mu.Unlock()
}

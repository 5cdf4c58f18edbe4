// Package store is the client surface of the remote data service. The
// synchronization core talks to these interfaces only; the GORM
// implementation lives alongside so the same process can serve as its
// own backend in development and tests.
package store

import (
	"context"
	"errors"
)

// ErrRejected marks a structured refusal by the data service (unknown
// product, invalid quantity) as opposed to a transport failure.
var ErrRejected = errors.New("rejected by data service")

// CartLine is one product in a user's cart, denormalized with display
// fields joined from the product record at read time.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Quantity  uint    `json:"quantity"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}

// WishlistEntry is one saved product, membership only, no quantity.
type WishlistEntry struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Rating    float64 `json:"rating"`
}

type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type CartStore interface {
	ListCartLines(ctx context.Context, userID uint) ([]CartLine, error)
	CountCartLines(ctx context.Context, userID uint) (int, error)
	AddCartLine(ctx context.Context, userID, productID, quantity uint) error
	RemoveCartLine(ctx context.Context, userID, productID uint) error
}

type WishlistStore interface {
	ListWishlist(ctx context.Context, userID uint) ([]WishlistEntry, error)
	CountWishlist(ctx context.Context, userID uint) (int, error)
	// ToggleWishlist flips membership and reports whether the product is
	// present after the call.
	ToggleWishlist(ctx context.Context, userID, productID uint) (bool, error)
}

type RoleStore interface {
	GetRole(ctx context.Context, userID uint) (string, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID uint) (*Profile, error)
}

// Store bundles every remote collection the storefront core reads.
type Store interface {
	CartStore
	WishlistStore
	RoleStore
	ProfileStore
}

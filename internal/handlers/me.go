package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MeHandler backs the header badges: profile, role and the cart and
// wishlist counters, all served from in-memory state with no store call.
type MeHandler struct{}

func (h *MeHandler) Me(c echo.Context) error {
	state, err := requireState(c)
	if state == nil {
		return err
	}

	s := state.Syncer()
	return c.JSON(http.StatusOK, echo.Map{
		"user":           state.Identity(),
		"profile":        state.Profile(),
		"role":           state.Role(),
		"is_admin":       state.IsAdmin(),
		"loading":        state.Loading(),
		"cart_count":     s.CartCount(),
		"wishlist_count": s.WishlistCount(),
	})
}

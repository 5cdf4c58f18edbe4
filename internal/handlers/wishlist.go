package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelasov/techstore/internal/events"
	"github.com/avelasov/techstore/internal/logging"
	"github.com/avelasov/techstore/internal/syncer"
)

type WishlistHandler struct {
	Producer events.Publisher
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	state, err := requireState(c)
	if state == nil {
		return err
	}

	s := state.Syncer()
	if err := s.RefreshWishlist(c.Request().Context()); err != nil {
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": s.WishlistEntries(),
		"count": s.WishlistCount(),
	})
}

func (h *WishlistHandler) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist_toggle")

	state, err := requireState(c)
	if state == nil {
		return err
	}

	productID, err := parseID(c)
	if err != nil {
		return err
	}

	s := state.Syncer()
	nowPresent, err := s.ToggleWishlist(ctx, productID)
	if err != nil {
		l.Warn("wishlist_toggle_failed", "product_id", productID, "error", err)
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}

	userID := state.Identity().UserID
	publish(c, h.Producer, events.TopicWishlistEvents, fmt.Sprint(userID), map[string]any{
		"type":      "wishlist_toggled",
		"userID":    userID,
		"productID": productID,
		"present":   nowPresent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"in_wishlist": nowPresent,
		"count":       s.WishlistCount(),
	})
}

// Contains answers the product-page heart icon from the snapshot alone.
func (h *WishlistHandler) Contains(c echo.Context) error {
	state, err := requireState(c)
	if state == nil {
		return err
	}

	productID, err := parseID(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"in_wishlist": state.Syncer().IsInWishlist(productID),
	})
}

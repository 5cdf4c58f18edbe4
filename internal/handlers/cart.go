package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelasov/techstore/internal/events"
	"github.com/avelasov/techstore/internal/gate"
	"github.com/avelasov/techstore/internal/logging"
	"github.com/avelasov/techstore/internal/session"
	"github.com/avelasov/techstore/internal/syncer"
)

type CartHandler struct {
	Producer events.Publisher
}

// syncStatus maps synchronizer errors onto HTTP. Structured rejections
// are the client's fault; everything else is the data service's.
func syncStatus(err error) int {
	switch {
	case errors.Is(err, syncer.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, syncer.ErrRemoteRejected):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func requireState(c echo.Context) (*session.State, error) {
	state := gate.StateFrom(c)
	if state == nil {
		return nil, c.JSON(http.StatusUnauthorized, syncer.ResultOf(syncer.ErrNotAuthenticated))
	}
	return state, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	state, err := requireState(c)
	if state == nil {
		return err
	}

	s := state.Syncer()
	if err := s.RefreshCart(c.Request().Context()); err != nil {
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": s.CartLines(),
		"count": s.CartCount(),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_add")

	state, err := requireState(c)
	if state == nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	s := state.Syncer()
	if err := s.AddToCart(ctx, req.ProductID, req.Quantity); err != nil {
		l.Warn("cart_add_failed", "product_id", req.ProductID, "error", err)
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}

	userID := state.Identity().UserID
	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   s.CartLines(),
		"count":   s.CartCount(),
	})
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_update_quantity")

	state, err := requireState(c)
	if state == nil {
		return err
	}

	productID, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s := state.Syncer()
	if err := s.UpdateCartQuantity(ctx, productID, req.Quantity); err != nil {
		l.Warn("cart_update_failed", "product_id", productID, "quantity", req.Quantity, "error", err)
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}

	userID := state.Identity().UserID
	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":      "cart_quantity_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   s.CartLines(),
		"count":   s.CartCount(),
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	state, err := requireState(c)
	if state == nil {
		return err
	}

	productID, err := parseID(c)
	if err != nil {
		return err
	}

	s := state.Syncer()
	if err := s.RemoveFromCart(ctx, productID); err != nil {
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}

	userID := state.Identity().UserID
	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   s.CartLines(),
		"count":   s.CartCount(),
	})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_clear")

	state, err := requireState(c)
	if state == nil {
		return err
	}

	s := state.Syncer()
	if err := s.ClearCart(ctx); err != nil {
		l.Warn("cart_clear_failed", "error", err)
		return c.JSON(syncStatus(err), syncer.ResultOf(err))
	}

	userID := state.Identity().UserID
	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   s.CartCount(),
	})
}

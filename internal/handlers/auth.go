package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelasov/techstore/internal/events"
	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/logging"
)

type AuthHandler struct {
	Identity *identity.Service
	Producer events.Publisher
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ident, err := h.Identity.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			l.Warn("register_failed", "status", 409, "reason", "email_taken")
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		if errors.Is(err, identity.ErrInvalidCredentials) {
			l.Warn("register_failed", "status", 400, "reason", "bad_credentials")
			return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
		}
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(ident.UserID), map[string]any{
		"type":   "user_registered",
		"userID": ident.UserID,
		"email":  ident.Email,
	})

	l.Info("register_success", "status", 200, "user_id", ident.UserID)
	return c.JSON(http.StatusOK, ident)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, ident, err := h.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	c.SetCookie(CreateCookie("accessToken", pair.AccessToken, "/", time.Now().Add(15*time.Minute)))
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", time.Now().Add(7*24*time.Hour)))

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(ident.UserID), map[string]any{
		"type":   "user_logged_in",
		"userID": ident.UserID,
	})

	l.Info("login_success", "status", 200, "user_id", ident.UserID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          ident,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	refresh := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		refresh = cookie.Value
	}

	if err := h.Identity.SignOut(ctx, refresh); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))

	l.Info("logout_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	cookie, err := c.Cookie("refreshToken")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, ident, err := h.Identity.Refresh(ctx, cookie.Value)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	c.SetCookie(CreateCookie("accessToken", pair.AccessToken, "/", time.Now().Add(15*time.Minute)))
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", time.Now().Add(7*24*time.Hour)))

	l.Info("refresh_success", "status", 200, "user_id", ident.UserID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

package gate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelasov/techstore/internal/permission"
	"github.com/avelasov/techstore/internal/session"
)

const stateContextKey = "session_state"

// ResolveSession resolves the access-token cookie to a session state and
// stores it in the request context. Guests pass through with no state;
// handlers that need one decide what that means.
func ResolveSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if cookie, err := c.Cookie("accessToken"); err == nil {
				token = cookie.Value
			}
			state, err := m.Resolve(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve session")
			}
			if state != nil {
				c.Set(stateContextKey, state)
			}
			return next(c)
		}
	}
}

// RequireAdmin guards an admin route group with Authorize. Decisions map
// onto HTTP: Wait becomes 503 with Retry-After, the redirects become 303s.
func RequireAdmin(m *session.Manager, required permission.Token) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sess Session
			if state := StateFrom(c); state != nil {
				sess = state
			}
			switch Authorize(sess, required) {
			case Wait:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "loading"})
			case RedirectLogin:
				return c.Redirect(http.StatusSeeOther, "/login")
			case RedirectHome:
				return c.Redirect(http.StatusSeeOther, "/")
			case RedirectAdminHome:
				return c.Redirect(http.StatusSeeOther, "/admin")
			}
			return next(c)
		}
	}
}

// StateFrom returns the session state resolved for this request, or nil
// for a guest.
func StateFrom(c echo.Context) *session.State {
	if v, ok := c.Get(stateContextKey).(*session.State); ok {
		return v
	}
	return nil
}

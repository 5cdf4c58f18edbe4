// Package gate decides whether a protected admin view may render, by
// composing the session state with the permission table.
package gate

import (
	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/permission"
)

// Session is the slice of session state the gate reads. *session.State
// satisfies it.
type Session interface {
	Loading() bool
	Identity() *identity.Identity
	IsAdmin() bool
	HasPermission(token permission.Token) bool
}

type Decision int

const (
	// Wait means the session is still loading; render a wait state,
	// neither allow nor redirect.
	Wait Decision = iota
	Allow
	RedirectLogin
	RedirectHome
	// RedirectAdminHome is for authenticated admins missing one specific
	// permission; they go to the admin landing page, not to login.
	RedirectAdminHome
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case RedirectAdminHome:
		return "redirect_admin_home"
	default:
		return "unknown"
	}
}

// Authorize checks loading, then authentication, then the admin flag,
// then the specific permission, in that order. Checking the permission
// before authentication would reveal protected routes to anonymous
// users, so the order is fixed. An empty required token means any admin
// may pass.
func Authorize(state Session, required permission.Token) Decision {
	if state != nil && state.Loading() {
		return Wait
	}
	if state == nil || state.Identity() == nil {
		return RedirectLogin
	}
	if !state.IsAdmin() {
		return RedirectHome
	}
	if required != "" && !state.HasPermission(required) {
		return RedirectAdminHome
	}
	return Allow
}

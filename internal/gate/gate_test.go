package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/permission"
)

type fakeSession struct {
	loading bool
	ident   *identity.Identity
	admin   bool
	role    permission.Role
}

func (f *fakeSession) Loading() bool                { return f.loading }
func (f *fakeSession) Identity() *identity.Identity { return f.ident }
func (f *fakeSession) IsAdmin() bool                { return f.admin }
func (f *fakeSession) HasPermission(token permission.Token) bool {
	return permission.Has(f.role, token)
}

func TestAuthorizeWaitsWhileLoadingRegardlessOfEverythingElse(t *testing.T) {
	t.Parallel()
	sessions := []*fakeSession{
		{loading: true},
		{loading: true, ident: &identity.Identity{UserID: 1}, admin: true, role: permission.RoleSuperAdmin},
		{loading: true, ident: &identity.Identity{UserID: 2}},
	}
	for _, s := range sessions {
		assert.Equal(t, Wait, Authorize(s, ""))
		assert.Equal(t, Wait, Authorize(s, permission.ManageProducts))
	}
}

func TestAuthorizeRedirectsGuestsToLogin(t *testing.T) {
	t.Parallel()
	assert.Equal(t, RedirectLogin, Authorize(nil, ""))
	assert.Equal(t, RedirectLogin, Authorize(&fakeSession{}, ""))
	// Anonymous users learn nothing about required permissions.
	assert.Equal(t, RedirectLogin, Authorize(nil, permission.ManageUsers))
}

func TestAuthorizeRedirectsNonAdminsHome(t *testing.T) {
	t.Parallel()
	s := &fakeSession{ident: &identity.Identity{UserID: 3}, role: permission.RoleCustomer}
	assert.Equal(t, RedirectHome, Authorize(s, ""))

	// A manager has permissions but no admin flag; still home.
	m := &fakeSession{ident: &identity.Identity{UserID: 4}, role: permission.RoleManager}
	assert.Equal(t, RedirectHome, Authorize(m, permission.ManageOrders))
}

func TestAuthorizeSendsUnderprivilegedAdminsToAdminHome(t *testing.T) {
	t.Parallel()
	s := &fakeSession{ident: &identity.Identity{UserID: 5}, admin: true, role: permission.RoleAdmin}
	assert.Equal(t, RedirectAdminHome, Authorize(s, permission.ManageUsers))
	assert.Equal(t, Allow, Authorize(s, permission.ManageProducts))
}

func TestAuthorizeAllowsAdmins(t *testing.T) {
	t.Parallel()
	s := &fakeSession{ident: &identity.Identity{UserID: 6}, admin: true, role: permission.RoleSuperAdmin}
	assert.Equal(t, Allow, Authorize(s, ""))
	assert.Equal(t, Allow, Authorize(s, permission.ManageUsers))
}

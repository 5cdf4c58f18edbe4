package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasov/techstore/internal/gate"
	"github.com/avelasov/techstore/internal/models"
	"github.com/avelasov/techstore/internal/permission"
)

func TestAdminRoutesRedirectGuestsToLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "SSD", "price": 99.0})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAdminRoutesRedirectNonAdminsHome(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ck := env.loginAs("customer")

	rec := env.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "SSD", "price": 99.0}, ck)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestManagerIsNotAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ck := env.loginAs("manager")

	rec := env.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "SSD", "price": 99.0}, ck)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAdminCanManageProducts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ck := env.loginAs("admin")

	rec := env.do(http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "SSD",
		"description": "1TB",
		"price":       99.0,
	}, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	assert.Equal(t, "SSD", prod.Name)

	rec = env.do(http.MethodPatch, "/api/v1/admin/products/1", map[string]any{"price": 899.0}, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v1/admin/products/2", nil, ck)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnderprivilegedAdminGoesToAdminHome(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// A route gated on a permission plain admins do not hold.
	env.E.POST("/api/v1/admin/users",
		func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		gate.ResolveSession(env.Sessions),
		gate.RequireAdmin(env.Sessions, permission.ManageUsers))

	ck := env.loginAs("admin")
	rec := env.do(http.MethodPost, "/api/v1/admin/users", nil, ck)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	super := env.loginAs("superadmin")
	rec = env.do(http.MethodPost, "/api/v1/admin/users", nil, super)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLandingAllowsAnyAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ck := env.loginAs("admin")

	rec := env.do(http.MethodGet, "/api/v1/admin", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
}

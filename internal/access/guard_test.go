package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"conductor/internal/session"
	"conductor/internal/web"
	"conductor/models"
	"conductor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(target string, user *models.User) *web.Request {
	return &web.Request{
		Request:  httptest.NewRequest(http.MethodGet, target, nil),
		Endpoint: "conductor.index",
		User:     user,
		Session:  session.New(),
	}
}

func okHandler(called *bool) web.HandlerFunc {
	return func(r *web.Request) (web.Result, error) {
		*called = true
		return web.Rendered("secret"), nil
	}
}

func TestRequireRolesAnonymous(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"no next", "/conductor/", "/"},
		{"local next", "/conductor/?next=/opportunities", "/opportunities"},
		{"absolute next", "/conductor/?next=https://evil.example", "/"},
		{"scheme relative next", "/conductor/?next=//evil.example", "/"},
		{"backslash next", "/conductor/?next=/%5Cevil.example", "/"},
		{"city absolute next", "/conductor/?next=https://city.gov/x", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireRoles(StaffRoles...)(okHandler(&called))

			res, err := h(newRequest(tt.target, nil))
			require.NoError(t, err)
			assert.False(t, called)
			assert.Equal(t, web.KindRedirect, res.Kind)
			assert.Equal(t, tt.want, res.Target)
			require.Len(t, res.Flashes, 1)
			assert.Equal(t, MsgUnauthenticated, res.Flashes[0].Message)
			assert.Equal(t, "alert-warning", res.Flashes[0].Class)
		})
	}
}

func TestRequireRolesInsufficientRole(t *testing.T) {
	for _, role := range []string{"", "vendor", "staff"} {
		called := false
		h := RequireRoles(StaffRoles...)(okHandler(&called))

		res, err := h(newRequest("/conductor/?next=/x", &models.User{ID: 1, RoleName: role}))
		require.NoError(t, err)
		assert.False(t, called, role)
		assert.Equal(t, web.KindRedirect, res.Kind)
		assert.Equal(t, "/x", res.Target)
		require.Len(t, res.Flashes, 1)
		assert.Equal(t, "alert-danger", res.Flashes[0].Class)
	}
}

func TestRequireRolesAllows(t *testing.T) {
	for _, role := range StaffRoles {
		called := false
		h := RequireRoles(StaffRoles...)(okHandler(&called))

		res, err := h(newRequest("/conductor/", &models.User{ID: 1, RoleName: role}))
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, web.Rendered("secret"), res)
	}
}

func TestTiers(t *testing.T) {
	conductor := &models.User{RoleName: models.RoleConductor}
	admin := &models.User{RoleName: models.RoleAdmin}
	super := &models.User{RoleName: models.RoleSuperAdmin}

	assert.True(t, IsAccessible(conductor, StaffRoles))
	assert.False(t, IsAccessible(conductor, AdminRoles))
	assert.True(t, IsAccessible(admin, AdminRoles))
	assert.False(t, IsAccessible(admin, SuperAdminRoles))
	assert.True(t, IsAccessible(super, SuperAdminRoles))
	assert.False(t, IsAccessible(nil, StaffRoles))

	assert.ErrorIs(t, Authorize(nil, StaffRoles), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(conductor, AdminRoles), ErrInsufficientRole)
}

func TestLogViewPassesThrough(t *testing.T) {
	called := false
	h := LogView(logger.Nop())(okHandler(&called))
	_, err := h(newRequest("/conductor/", nil))
	require.NoError(t, err)
	assert.True(t, called)
}

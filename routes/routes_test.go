package routes

import (
	"io"
	"net/http"
	"testing"
	"time"

	"food-delivery-api/authz"
	"food-delivery-api/handlers"
	"food-delivery-api/middleware"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T, reg *authz.Registry) Options {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return Options{
		Registry:    reg,
		Tokens:      middleware.NewTokenIssuer([]byte("k"), time.Hour),
		AuthLimiter: middleware.NewRateLimiter(100, 100),
		Gatherer:    prometheus.NewRegistry(),
		Log:         log,
	}
}

func TestRegistryCompiles(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Len(t, reg.PublicRules(), len(PublicRules()))
	assert.Len(t, reg.Rules(), len(PermissionRules()))
}

func TestEveryRouteIsCovered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg, err := NewRegistry()
	require.NoError(t, err)

	r, err := NewRouter(handlers.New(handlers.Deps{}), testOptions(t, reg))
	require.NoError(t, err)
	assert.NotEmpty(t, r.Routes())
}

func TestUncoveredRouteFailsStartup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := authz.MustNewRegistry(PublicRules(), PermissionRules()[1:]) // drop GET /profile

	_, err := NewRouter(handlers.New(handlers.Deps{}), testOptions(t, reg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /api/v1/profile")
}

func TestPermissionTable(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	ev := authz.NewEvaluator(reg, nil)

	tests := []struct {
		method string
		path   string
		role   models.Role
		want   authz.Outcome
	}{
		{http.MethodPatch, "/api/v1/orders/123/status", models.RoleRestaurantOwner, authz.Allow},
		{http.MethodPatch, "/api/v1/orders/123/status", models.RoleDriver, authz.Allow},
		{http.MethodPatch, "/api/v1/orders/123/status", models.RoleCustomer, authz.DenyForbidden},
		{http.MethodPost, "/api/v1/orders/123/cancel", models.RoleCustomer, authz.Allow},
		{http.MethodPost, "/api/v1/orders/123/cancel", models.RoleRestaurantOwner, authz.DenyForbidden},
		{http.MethodGet, "/api/v1/support/orders", models.RoleSupport, authz.Allow},
		{http.MethodGet, "/api/v1/support/orders", models.RoleCustomer, authz.DenyForbidden},
		{http.MethodGet, "/api/v1/driver/orders/available", models.RoleDriver, authz.Allow},
		{http.MethodPost, "/api/v1/admin/users", models.RoleSupport, authz.DenyForbidden},
		{http.MethodDelete, "/api/v1/orders/123", models.RoleAdmin, authz.DenyNoRule},
		{http.MethodGet, "/api/v1/unmapped-path", models.RoleAdmin, authz.DenyNoRule},
		{http.MethodGet, "/metrics", models.RoleAdmin, authz.Allow},
		{http.MethodGet, "/metrics", models.RoleSupport, authz.DenyForbidden},
		{http.MethodPost, "/api/v1/admin/invoices/generate", models.RoleAdmin, authz.Allow},
		{http.MethodGet, "/api/v1/admin/invoices/inv-1", models.RoleRestaurantOwner, authz.DenyForbidden},
		{http.MethodGet, "/api/v1/restaurants/r-1/invoices", models.RoleRestaurantOwner, authz.Allow},
		{http.MethodGet, "/api/v1/admin/drivers", models.RoleAdmin, authz.Allow},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.role.String(), func(t *testing.T) {
			d := ev.Decide(tt.method, tt.path, &authz.Identity{UserID: "u", Role: tt.role})
			assert.Equal(t, tt.want, d.Outcome)
		})
	}
}

func TestPublicRulesIgnoreIdentity(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	ev := authz.NewEvaluator(reg, nil)
	for _, pr := range PublicRules() {
		d := ev.Decide(pr.Method, pr.Pattern, nil)
		assert.Equal(t, authz.Allow, d.Outcome, pr.Method+" "+pr.Pattern)
	}
}

func TestMetricsNeedsAToken(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	d := authz.NewEvaluator(reg, nil).Decide(http.MethodGet, "/metrics", nil)
	assert.Equal(t, authz.DenyUnauthenticated, d.Outcome)
}

func TestPreflightRules(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	ev := authz.NewEvaluator(reg, nil)

	for _, r := range PermissionRules() {
		d := ev.Decide(http.MethodOptions, r.Pattern, nil)
		assert.Equal(t, authz.Allow, d.Outcome, "OPTIONS "+r.Pattern)
	}
	for _, path := range []string{"/api/v1/unmapped-path", "/api/v1/orders/1/refund", "/admin"} {
		d := ev.Decide(http.MethodOptions, path, nil)
		assert.Equal(t, authz.DenyNoRule, d.Outcome, "OPTIONS "+path)
	}
}

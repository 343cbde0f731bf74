package authz_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/mocks"
	"food-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testPublic = []authz.PublicRule{
		{Method: http.MethodGet, Pattern: "/health"},
		{Method: http.MethodGet, Pattern: "/api/v1/restaurants/:id"},
	}
	testRules = []authz.PermissionRule{
		{Method: http.MethodGet, Pattern: "/api/v1/orders/:id", AllowedRoles: models.NewRoleSet(models.RoleCustomer, models.RoleAdmin)},
		{Method: http.MethodGet, Pattern: "/api/v1/orders/available", AllowedRoles: models.NewRoleSet(models.RoleDriver)},
		{Method: http.MethodPatch, Pattern: "/api/v1/orders/:id/status", AllowedRoles: models.NewRoleSet(models.RoleRestaurantOwner, models.RoleDriver, models.RoleAdmin)},
		{Method: http.MethodPut, Pattern: "/api/v1/restaurants/:id", AllowedRoles: models.NewRoleSet(models.RoleRestaurantOwner, models.RoleAdmin)},
		{Method: http.MethodGet, Pattern: "/api/v1/admin/users", AllowedRoles: models.NewRoleSet(models.RoleAdmin)},
	}
)

func newEvaluator(t *testing.T, sink authz.AuditSink) *authz.Evaluator {
	t.Helper()
	reg, err := authz.NewRegistry(testPublic, testRules)
	require.NoError(t, err)
	return authz.NewEvaluator(reg, sink)
}

func identities() []*authz.Identity {
	ids := []*authz.Identity{nil}
	for _, r := range models.AllRoles {
		ids = append(ids, &authz.Identity{UserID: "u-" + r.String(), Email: r.String() + "@example.com", Role: r})
	}
	return ids
}

func TestDecide_DefaultDenyForEveryIdentity(t *testing.T) {
	ev := newEvaluator(t, nil)
	unmapped := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/unmapped-path"},
		{http.MethodDelete, "/api/v1/orders/1"},
		{http.MethodGet, "/api/v1/orders/1/status/extra"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPatch, "/api/v1/orders//status"},
		{http.MethodGet, "/"},
	}
	for _, u := range unmapped {
		for _, id := range identities() {
			d := ev.Decide(u.method, u.path, id)
			assert.Equal(t, authz.DenyNoRule, d.Outcome, "%s %s", u.method, u.path)
			assert.Empty(t, d.Pattern)
		}
	}
}

func TestDecide_PublicBypassesIdentity(t *testing.T) {
	ev := newEvaluator(t, nil)
	for _, id := range identities() {
		for _, path := range []string{"/health", "/api/v1/restaurants/42", "/health/"} {
			d := ev.Decide(http.MethodGet, path, id)
			assert.True(t, d.Allowed(), path)
			assert.True(t, d.Public)
		}
	}
}

func TestDecide_AuthenticationGate(t *testing.T) {
	ev := newEvaluator(t, nil)
	for _, r := range testRules {
		path := concrete(r.Pattern)
		d := ev.Decide(r.Method, path, nil)
		assert.Equal(t, authz.DenyUnauthenticated, d.Outcome, "%s %s", r.Method, path)
	}
}

func TestDecide_RoleGate(t *testing.T) {
	ev := newEvaluator(t, nil)
	for _, r := range testRules {
		path := concrete(r.Pattern)
		for _, role := range models.AllRoles {
			id := &authz.Identity{UserID: "u1", Role: role}
			d := ev.Decide(r.Method, path, id)
			if r.AllowedRoles.Has(role) {
				assert.Equal(t, authz.Allow, d.Outcome, "%s %s as %s", r.Method, path, role)
				continue
			}
			assert.Equal(t, authz.DenyForbidden, d.Outcome, "%s %s as %s", r.Method, path, role)
			assert.Equal(t, r.AllowedRoles, d.RequiredRoles)
		}
	}
}

func TestDecide_LiteralSegmentWinsOverParameter(t *testing.T) {
	ev := newEvaluator(t, nil)
	driver := &authz.Identity{UserID: "d1", Role: models.RoleDriver}

	d := ev.Decide(http.MethodGet, "/api/v1/orders/available", driver)
	assert.Equal(t, authz.Allow, d.Outcome)
	assert.Equal(t, "/api/v1/orders/available", d.Pattern)

	d = ev.Decide(http.MethodGet, "/api/v1/orders/123", driver)
	assert.Equal(t, authz.DenyForbidden, d.Outcome)
	assert.Equal(t, "/api/v1/orders/:id", d.Pattern)
}

func TestDecide_MethodDistinguishesPublicFromProtected(t *testing.T) {
	ev := newEvaluator(t, nil)
	assert.True(t, ev.Decide(http.MethodGet, "/api/v1/restaurants/7", nil).Allowed())
	assert.Equal(t, authz.DenyUnauthenticated, ev.Decide(http.MethodPut, "/api/v1/restaurants/7", nil).Outcome)
	assert.Equal(t, authz.DenyUnauthenticated, ev.Decide("put", "/api/v1/restaurants/7", nil).Outcome)
}

func TestDecision_Err(t *testing.T) {
	ev := newEvaluator(t, nil)
	customer := &authz.Identity{UserID: "c1", Role: models.RoleCustomer}

	d := ev.Decide(http.MethodGet, "/api/v1/admin/users", customer)
	err := d.Err(http.MethodGet, "/api/v1/admin/users")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindInsufficientRole, err.Kind)
	assert.Equal(t, "Required roles: admin", err.Message)
	assert.Equal(t, http.StatusForbidden, err.Kind.HTTPStatus())

	d = ev.Decide(http.MethodGet, "/api/v1/admin/users", nil)
	assert.True(t, errors.Is(d.Err("GET", "/api/v1/admin/users"), apperrors.ErrAuthenticationRequired))

	d = ev.Decide(http.MethodGet, "/nowhere", customer)
	noRule := d.Err("GET", "/nowhere")
	assert.Equal(t, apperrors.KindNoRuleDefined, noRule.Kind)
	assert.NotContains(t, noRule.Message, "/nowhere")

	assert.Nil(t, ev.Decide(http.MethodGet, "/health", nil).Err("GET", "/health"))
}

func TestEvaluate_RecordsEveryDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockAuditSink(ctrl)
	ev := newEvaluator(t, sink)

	var got []authz.Event
	sink.EXPECT().Record(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e authz.Event) { got = append(got, e) }).
		Times(3)

	admin := &authz.Identity{UserID: "a1", Email: "root@example.com", Role: models.RoleAdmin}
	ctx := context.Background()

	ev.Evaluate(ctx, authz.Request{Method: "GET", Path: "/health", IP: "10.0.0.1", UserAgent: "curl/8"})
	ev.Evaluate(ctx, authz.Request{Method: "GET", Path: "/api/v1/admin/users", Identity: admin, IP: "10.0.0.2"})
	d := ev.Evaluate(ctx, authz.Request{Method: "GET", Path: "/api/v1/unmapped-path", Identity: admin})

	assert.Equal(t, authz.DenyNoRule, d.Outcome)
	require.Len(t, got, 3)

	assert.Equal(t, authz.Allow, got[0].Decision)
	assert.Empty(t, got[0].UserID)
	assert.Equal(t, "10.0.0.1", got[0].IP)
	assert.Equal(t, "curl/8", got[0].UserAgent)
	assert.False(t, got[0].Elevated())
	assert.WithinDuration(t, time.Now(), got[0].Timestamp, time.Minute)

	assert.Equal(t, authz.Allow, got[1].Decision)
	assert.Equal(t, "a1", got[1].UserID)
	assert.Equal(t, "root@example.com", got[1].Email)
	assert.Equal(t, "admin", got[1].Role)

	assert.Equal(t, authz.DenyNoRule, got[2].Decision)
	assert.True(t, got[2].Elevated())
}

func TestRegistry_Uncovered(t *testing.T) {
	reg, err := authz.NewRegistry(testPublic, testRules)
	require.NoError(t, err)

	missing := reg.Uncovered([]authz.Route{
		{Method: "GET", Path: "/health"},
		{Method: "GET", Path: "/api/v1/orders/:id"},
		{Method: "PATCH", Path: "/api/v1/orders/:id/status"},
		{Method: "POST", Path: "/api/v1/orders/:id/cancel"},
		{Method: "DELETE", Path: "/api/v1/restaurants/:id"},
	})
	assert.Equal(t, []authz.Route{
		{Method: "POST", Path: "/api/v1/orders/:id/cancel"},
		{Method: "DELETE", Path: "/api/v1/restaurants/:id"},
	}, missing)
}

func TestNewRegistry_RejectsInvalidTables(t *testing.T) {
	admin := models.NewRoleSet(models.RoleAdmin)
	tests := []struct {
		name   string
		public []authz.PublicRule
		rules  []authz.PermissionRule
	}{
		{"empty role set", nil, []authz.PermissionRule{{Method: "GET", Pattern: "/a"}}},
		{"unknown method", nil, []authz.PermissionRule{{Method: "FETCH", Pattern: "/a", AllowedRoles: admin}}},
		{"relative pattern", nil, []authz.PermissionRule{{Method: "GET", Pattern: "a/b", AllowedRoles: admin}}},
		{"empty segment", nil, []authz.PermissionRule{{Method: "GET", Pattern: "/a//b", AllowedRoles: admin}}},
		{"wildcard", nil, []authz.PermissionRule{{Method: "GET", Pattern: "/files/*path", AllowedRoles: admin}}},
		{"unnamed param", nil, []authz.PermissionRule{{Method: "GET", Pattern: "/a/:", AllowedRoles: admin}}},
		{"duplicate shape", nil, []authz.PermissionRule{
			{Method: "GET", Pattern: "/orders/:id", AllowedRoles: admin},
			{Method: "GET", Pattern: "/orders/:orderId", AllowedRoles: admin},
		}},
		{"public and protected overlap", []authz.PublicRule{{Method: "GET", Pattern: "/a"}},
			[]authz.PermissionRule{{Method: "GET", Pattern: "/a", AllowedRoles: admin}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authz.NewRegistry(tt.public, tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_RulesAreCopies(t *testing.T) {
	reg := authz.MustNewRegistry(testPublic, testRules)
	rules := reg.Rules()
	rules[0].AllowedRoles = models.NewRoleSet(models.RoleCustomer, models.RoleDriver, models.RoleSupport)

	ev := authz.NewEvaluator(reg, nil)
	d := ev.Decide("GET", "/api/v1/orders/1", &authz.Identity{UserID: "s", Role: models.RoleSupport})
	assert.Equal(t, authz.DenyForbidden, d.Outcome)
	assert.Len(t, reg.PublicRules(), len(testPublic))
}

// concrete substitutes a sample value for every parameter segment.
func concrete(pattern string) string {
	out := []byte{}
	param := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == ':':
			param = true
			out = append(out, "123"...)
		case c == '/':
			param = false
			out = append(out, c)
		case !param:
			out = append(out, c)
		}
	}
	return string(out)
}

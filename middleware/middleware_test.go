package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour)
	user := &models.User{ID: "u-1", Email: "omar@example.com", Role: models.RoleRestaurantOwner}

	signed, err := tokens.Generate(user)
	require.NoError(t, err)

	id, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, authz.Identity{UserID: "u-1", Email: "omar@example.com", Role: models.RoleRestaurantOwner}, *id)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "a@b.c", Role: models.RoleCustomer}

	expired := NewTokenIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Generate(user)
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer([]byte("another-secret"), time.Hour).Generate(user)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tokens := NewTokenIssuer(testSecret, time.Hour)
	for name, tok := range map[string]string{
		"expired":      expiredToken,
		"wrong key":    otherKey,
		"alg none":     noneToken,
		"garbage":      "not.a.jwt",
		"empty string": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Parse(tok)
			assert.Error(t, err)
		})
	}
}

func newGatedRouter(t *testing.T) (*gin.Engine, *TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := NewTokenIssuer(testSecret, time.Hour)
	reg := authz.MustNewRegistry(
		[]authz.PublicRule{{Method: http.MethodGet, Pattern: "/health"}},
		[]authz.PermissionRule{
			{Method: http.MethodGet, Pattern: "/api/v1/admin/users", AllowedRoles: models.NewRoleSet(models.RoleAdmin)},
			{Method: http.MethodGet, Pattern: "/api/v1/profile", AllowedRoles: models.NewRoleSet(models.AllRoles...)},
		},
	)
	log := quietLogger()

	r := gin.New()
	r.Use(Authenticate(tokens, log), Authorize(authz.NewEvaluator(reg, nil), log))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user_id": CurrentIdentity(c).UserID}) }
	r.GET("/health", ok)
	r.GET("/api/v1/admin/users", ok)
	r.GET("/api/v1/profile", ok)
	return r, tokens
}

func TestAuthorize(t *testing.T) {
	r, tokens := newGatedRouter(t)
	customer, err := tokens.Generate(&models.User{ID: "c-1", Role: models.RoleCustomer})
	require.NoError(t, err)
	admin, err := tokens.Generate(&models.User{ID: "a-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantKind apperrors.Kind
		wantMsg  string
	}{
		{"public without token", "/health", "", http.StatusOK, "", ""},
		{"protected without token", "/api/v1/profile", "", http.StatusUnauthorized, apperrors.KindAuthenticationRequired, ""},
		{"invalid token is anonymous", "/api/v1/profile", "garbage", http.StatusUnauthorized, apperrors.KindAuthenticationRequired, ""},
		{"any role on profile", "/api/v1/profile", customer, http.StatusOK, "", ""},
		{"customer on admin route", "/api/v1/admin/users", customer, http.StatusForbidden, apperrors.KindInsufficientRole, "Required roles: admin"},
		{"admin on admin route", "/api/v1/admin/users", admin, http.StatusOK, "", ""},
		{"admin on unmapped path", "/api/v1/unmapped-path", admin, http.StatusForbidden, apperrors.KindNoRuleDefined, "Access denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantKind == "" {
				return
			}
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantKind, body.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestAbortWithError_HidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, quietLogger(), errors.New(`SELECT * FROM "orders" WHERE secret`))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperrors.KindInternal, body.Error)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "SELECT")
}

func TestAbortWithError_DetailStaysOutOfBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/owner", func(c *gin.Context) {
		AbortWithError(c, quietLogger(), apperrors.NotResourceOwner("order-42").With("caller_id", "u-9"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/owner", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "order-42")
	assert.NotContains(t, w.Body.String(), "u-9")
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/login", rl.Middleware(quietLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	w := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, apperrors.KindRateLimited, decodeError(t, w).Error)

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code, "limits are per client ip")
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return clock }

	rl.Allow("ip:10.0.0.1")
	clock = clock.Add(10 * time.Minute)
	rl.Allow("ip:10.0.0.2")
	require.Equal(t, 2, rl.Len())

	assert.Equal(t, 1, rl.Sweep(5*time.Minute))
	assert.Equal(t, 1, rl.Len())

	clock = clock.Add(10 * time.Minute)
	assert.Equal(t, 1, rl.Sweep(5*time.Minute))
	assert.Zero(t, rl.Len())
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow("ip:10.0.0.1")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond, -time.Hour, quietLogger())
		close(done)
	}()

	assert.Eventually(t, func() bool { return rl.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(), Preflight())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightGoesThroughAuthorize(t *testing.T) {
	reg, err := authz.NewRegistry(
		[]authz.PublicRule{{Method: http.MethodOptions, Pattern: "/api/v1/admin/users"}},
		[]authz.PermissionRule{{Method: http.MethodGet, Pattern: "/api/v1/admin/users", AllowedRoles: models.NewRoleSet(models.RoleAdmin)}},
	)
	require.NoError(t, err)
	var events []authz.Event
	sink := authz.AuditSinkFunc(func(_ context.Context, ev authz.Event) { events = append(events, ev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(), Authorize(authz.NewEvaluator(reg, sink), quietLogger()), Preflight())

	tests := []struct {
		path     string
		wantCode int
		want     authz.Outcome
	}{
		{"/api/v1/admin/users", http.StatusNoContent, authz.Allow},
		{"/api/v1/unmapped-path", http.StatusForbidden, authz.DenyNoRule},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			events = nil
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, tt.path, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			require.Len(t, events, 1)
			assert.Equal(t, http.MethodOptions, events[0].Method)
			assert.Equal(t, tt.want, events[0].Decision)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := quietLogger()
	var entries []*logrus.Entry
	log.AddHook(hookFunc(func(e *logrus.Entry) { entries = append(entries, e) }))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, entries, 1)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "/orders/:id", entries[0].Data["route"])
	assert.Equal(t, 404, entries[0].Data["status"])
	for _, v := range entries[0].Data {
		assert.NotEqual(t, "Bearer secret-token", v)
	}
}

type hookFunc func(*logrus.Entry)

func (hookFunc) Levels() []logrus.Level       { return logrus.AllLevels }
func (f hookFunc) Fire(e *logrus.Entry) error { f(e); return nil }

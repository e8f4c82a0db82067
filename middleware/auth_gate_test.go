package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gateNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// signToken builds an HS256 token with the given role and expiry. The gate
// never verifies signatures, so the key is arbitrary.
func signToken(t *testing.T, role string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u1", "exp": expiresAt.Unix()}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func signTokenWithoutExpiry(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestEvaluate(t *testing.T) {
	cfg := DefaultAuthGateConfig()
	live := gateNow.Add(time.Hour)
	expired := gateNow.Add(-time.Hour)

	customer := signToken(t, "customer", live)
	merchant := signToken(t, "merchant", live)
	admin := signToken(t, "admin", live)
	expiredCustomer := signToken(t, "customer", expired)

	tests := []struct {
		name         string
		path         string
		accessToken  string
		refreshToken string
		wantAllow    bool
		wantLocation string
	}{
		{
			name:      "public path anonymous",
			path:      "/products",
			wantAllow: true,
		},
		{
			name:        "public path authenticated",
			path:        "/products/rifle-cases",
			accessToken: customer,
			wantAllow:   true,
		},
		{
			name:         "protected path anonymous redirects to login with returnTo",
			path:         "/checkout",
			wantLocation: "/auth/login?returnTo=%2Fcheckout",
		},
		{
			name:         "protected subpath anonymous",
			path:         "/orders/ord-42/receipt",
			wantLocation: "/auth/login?returnTo=%2Forders%2Ford-42%2Freceipt",
		},
		{
			name:        "protected path customer",
			path:        "/account",
			accessToken: customer,
			wantAllow:   true,
		},
		{
			name:         "protected path expired token",
			path:         "/checkout",
			accessToken:  expiredCustomer,
			wantLocation: "/auth/login?returnTo=%2Fcheckout",
		},
		{
			name:         "expired access with live refresh passes provisionally",
			path:         "/checkout",
			accessToken:  expiredCustomer,
			refreshToken: signToken(t, "", live),
			wantAllow:    true,
		},
		{
			name:         "expired access with expired refresh redirects",
			path:         "/checkout",
			accessToken:  expiredCustomer,
			refreshToken: signToken(t, "", expired),
			wantLocation: "/auth/login?returnTo=%2Fcheckout",
		},
		{
			name:         "merchant route anonymous",
			path:         "/dashboard",
			wantLocation: "/auth/login?returnTo=%2Fdashboard",
		},
		{
			name:         "merchant route customer denied to home",
			path:         "/dashboard/payouts",
			accessToken:  customer,
			wantLocation: "/",
		},
		{
			name:        "merchant route merchant",
			path:        "/dashboard",
			accessToken: merchant,
			wantAllow:   true,
		},
		{
			name:        "merchant route admin",
			path:        "/dashboard/settings",
			accessToken: admin,
			wantAllow:   true,
		},
		{
			name:         "refresh-only session has no role on merchant routes",
			path:         "/dashboard",
			refreshToken: signToken(t, "", live),
			wantLocation: "/",
		},
		{
			name:      "guest route anonymous",
			path:      "/auth/login",
			wantAllow: true,
		},
		{
			name:         "guest route customer redirects to products",
			path:         "/auth/login",
			accessToken:  customer,
			wantLocation: "/products",
		},
		{
			name:         "guest route merchant redirects to dashboard",
			path:         "/auth/signup",
			accessToken:  merchant,
			wantLocation: "/dashboard",
		},
		{
			name:         "malformed token is anonymous",
			path:         "/checkout",
			accessToken:  "not.a.jwt",
			wantLocation: "/auth/login?returnTo=%2Fcheckout",
		},
		{
			name:         "token without exp is anonymous",
			path:         "/checkout",
			accessToken:  signTokenWithoutExpiry(t),
			wantLocation: "/auth/login?returnTo=%2Fcheckout",
		},
		{
			name:      "dashboard-prefixed public path is not a merchant route",
			path:      "/dashboards-of-glory",
			wantAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(cfg, tt.path, tt.accessToken, tt.refreshToken, gateNow)
			assert.Equal(t, tt.wantAllow, decision.Allow)
			assert.Equal(t, tt.wantLocation, decision.Location)
		})
	}
}

func TestEvaluate_ExpirySkew(t *testing.T) {
	cfg := DefaultAuthGateConfig()

	t.Run("expiring inside the skew window counts as expired", func(t *testing.T) {
		token := signToken(t, "customer", gateNow.Add(10*time.Second))
		decision := Evaluate(cfg, "/checkout", token, "", gateNow)
		assert.False(t, decision.Allow)
	})

	t.Run("expiring just past the skew window is live", func(t *testing.T) {
		token := signToken(t, "customer", gateNow.Add(expirySkew+2*time.Second))
		decision := Evaluate(cfg, "/checkout", token, "", gateNow)
		assert.True(t, decision.Allow)
	})
}

func TestAuthGate_Middleware(t *testing.T) {
	cfg := DefaultAuthGateConfig()
	e := echo.New()
	e.Use(AuthGate(cfg))
	e.GET("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "upstream")
	})

	t.Run("allowed request reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/account", nil)
		req.AddCookie(&http.Cookie{
			Name:  cfg.AccessTokenCookie,
			Value: signToken(t, "customer", time.Now().Add(time.Hour)),
		})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "upstream", rec.Body.String())
	})

	t.Run("blocked request gets a temporary redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/account", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/auth/login?returnTo=%2Faccount", rec.Header().Get("Location"))
	})

	t.Run("refresh cookie alone is enough for protected routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.AddCookie(&http.Cookie{
			Name:  cfg.RefreshTokenCookie,
			Value: signToken(t, "", time.Now().Add(time.Hour)),
		})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

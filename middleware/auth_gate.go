package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Route tables for the gate. Matching is exact path or path+"/" prefix.
var (
	// protectedRoutes require any authenticated user.
	protectedRoutes = []string{"/checkout", "/account", "/orders"}
	// merchantRoutes require the merchant or admin role.
	merchantRoutes = []string{"/dashboard"}
	// guestOnlyRoutes redirect authenticated users to their landing page.
	guestOnlyRoutes = []string{"/auth/login", "/auth/signup"}
)

// expirySkew is the buffer against clock skew and in-flight latency: a token
// expiring within it counts as already expired.
const expirySkew = 30 * time.Second

// AuthGateConfig carries the cookie names and redirect targets for the gate.
type AuthGateConfig struct {
	AccessTokenCookie  string
	RefreshTokenCookie string
	LoginPath          string
	HomePath           string
	MerchantLanding    string
	CustomerLanding    string
}

// DefaultAuthGateConfig returns the storefront's standard gate settings.
func DefaultAuthGateConfig() AuthGateConfig {
	return AuthGateConfig{
		AccessTokenCookie:  "shotpay_access_token",
		RefreshTokenCookie: "shotpay_refresh_token",
		LoginPath:          "/auth/login",
		HomePath:           "/",
		MerchantLanding:    "/dashboard",
		CustomerLanding:    "/products",
	}
}

// Decision is the outcome of evaluating one request.
type Decision struct {
	Allow    bool
	Location string
}

var pass = Decision{Allow: true}

func redirect(location string) Decision {
	return Decision{Location: location}
}

// Evaluate decides whether a request may proceed, given only its path and
// the two token cookies. It is pure and total: malformed tokens mean "not
// authenticated", never an error.
//
// The claims are read without signature verification. This is an early UX
// redirect, not a security boundary; every API call is verified server-side.
func Evaluate(cfg AuthGateConfig, path, accessToken, refreshToken string, now time.Time) Decision {
	authenticated := false
	role := ""

	if accessToken != "" {
		if claims, ok := parseUnverifiedClaims(accessToken); ok && !claimsExpired(claims, now) {
			authenticated = true
			role, _ = claims["role"].(string)
		}
	}

	// An expired access token with a live refresh token passes provisionally:
	// the client refreshes silently, and redirecting here would flicker.
	if !authenticated && refreshToken != "" {
		if claims, ok := parseUnverifiedClaims(refreshToken); ok && !claimsExpired(claims, now) {
			authenticated = true
		}
	}

	switch {
	case matchesRoute(path, guestOnlyRoutes):
		if authenticated {
			if role == "merchant" {
				return redirect(cfg.MerchantLanding)
			}
			return redirect(cfg.CustomerLanding)
		}
		return pass

	case matchesRoute(path, merchantRoutes):
		if !authenticated {
			return redirect(loginRedirect(cfg.LoginPath, path))
		}
		if role != "merchant" && role != "admin" {
			return redirect(cfg.HomePath)
		}
		return pass

	case matchesRoute(path, protectedRoutes):
		if !authenticated {
			return redirect(loginRedirect(cfg.LoginPath, path))
		}
		return pass
	}

	return pass
}

// AuthGate returns the route-protection middleware. It runs ahead of the
// upstream proxy so disallowed requests are redirected before any page code.
func AuthGate(cfg AuthGateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := Evaluate(cfg,
				c.Request().URL.Path,
				cookieValue(c, cfg.AccessTokenCookie),
				cookieValue(c, cfg.RefreshTokenCookie),
				time.Now())
			if !decision.Allow {
				return c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			}
			return next(c)
		}
	}
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// matchesRoute reports whether path equals a route or lives under it.
func matchesRoute(path string, routes []string) bool {
	for _, route := range routes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// parseUnverifiedClaims extracts the claims of a JWT without checking its
// signature.
func parseUnverifiedClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// claimsExpired reports whether the token is unusable: no exp claim, or exp
// within the skew buffer of now.
func claimsExpired(claims jwt.MapClaims, now time.Time) bool {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !now.Add(expirySkew).Before(exp.Time)
}

func loginRedirect(loginPath, returnTo string) string {
	return loginPath + "?returnTo=" + url.QueryEscape(returnTo)
}

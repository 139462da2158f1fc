// Package session maps rotation outcomes onto the HTTP cookie pair. It holds
// no business logic: handlers decide what happened, this package decides how
// the cookies look.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	AccessCookieName  = "trove_access"
	RefreshCookieName = "trove_refresh"

	// RefreshCookiePath restricts the refresh cookie to the one endpoint
	// that can use it; browsers never attach it anywhere else.
	RefreshCookiePath = "/auth/refresh"
)

type Config struct {
	Domain        string
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

type Transport struct {
	config Config
}

func NewTransport(cfg Config) *Transport {
	return &Transport{config: cfg}
}

// SetAccessCookie attaches a short-lived, site-wide access token cookie.
// SameSite stays lax so ordinary navigation keeps working.
func (t *Transport) SetAccessCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookieName,
		Value:    token,
		MaxAge:   int(t.config.AccessMaxAge.Seconds()),
		Path:     "/",
		Domain:   t.config.Domain,
		Secure:   t.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRefreshCookie attaches the long-lived refresh cookie, scoped to the
// refresh endpoint only and strict same-site.
func (t *Transport) SetRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		MaxAge:   int(t.config.RefreshMaxAge.Seconds()),
		Path:     RefreshCookiePath,
		Domain:   t.config.Domain,
		Secure:   t.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAccessCookie expires the access cookie with the same scoping
// attributes it was set with, otherwise browsers keep the original.
func (t *Transport) ClearAccessCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Domain:   t.config.Domain,
		Secure:   t.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (t *Transport) ClearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     RefreshCookiePath,
		Domain:   t.config.Domain,
		Secure:   t.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshTokenFromRequest extracts the presented refresh token, empty when
// the cookie is absent.
func RefreshTokenFromRequest(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

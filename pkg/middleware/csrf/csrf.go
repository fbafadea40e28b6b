// Package csrf implements double-submit cookie protection for requests
// that authenticate with the access token cookie.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type Config struct {
	CookieName string
	HeaderName string

	// AuthCookieName marks cookie-authenticated requests. Requests carrying
	// an Authorization header are not browser-ambient and are skipped.
	AuthCookieName string

	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration

	// AllowedOrigins, when set, rejects unsafe requests whose Origin is not listed.
	AllowedOrigins []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:     "XSRF-TOKEN",
		HeaderName:     "X-CSRF-Token",
		AuthCookieName: "accessToken",
		SameSite:       http.SameSiteLaxMode,
		MaxAge:         24 * time.Hour,
	}
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.AuthCookieName == "" {
		cfg.AuthCookieName = def.AuthCookieName
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = newToken(32); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
			}
			setCookie(c, cfg, token)
			c.Response().Header().Set(cfg.HeaderName, token)

			if safeMethod(req.Method) || !cookieAuthenticated(req, cfg.AuthCookieName) {
				return next(c)
			}

			if origin := req.Header.Get(echo.HeaderOrigin); origin != "" && len(cfg.AllowedOrigins) > 0 {
				if !slices.Contains(cfg.AllowedOrigins, origin) {
					return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
				}
			}

			provided := req.Header.Get(cfg.HeaderName)
			if provided == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func safeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func cookieAuthenticated(req *http.Request, authCookie string) bool {
	if strings.TrimSpace(req.Header.Get(echo.HeaderAuthorization)) != "" {
		return false
	}
	return readCookie(req, authCookie) != ""
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})
}

func readCookie(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

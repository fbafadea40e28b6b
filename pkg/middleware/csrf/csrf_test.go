package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	mw := Middleware(Config{AllowedOrigins: []string{"http://localhost:5173"}})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/x", ok, mw)
	e.POST("/x", ok, mw)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCSRF_IssuesTokenOnSafeRequest(t *testing.T) {
	e := newEcho()

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, rec.Header().Get("X-CSRF-Token"), cookies[0].Value)
}

func TestCSRF_BearerRequestsSkipCheck(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestCSRF_CookieAuthNeedsMatchingHeader(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "other")
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestCSRF_RejectsForeignOrigin(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)
}

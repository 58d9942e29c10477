package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func callWithKey(t *testing.T, configured, provided string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/pix/create", nil)
	if provided != "" {
		req.Header.Set("X-API-Key", provided)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	return RequireAPIKey(configured)(next)(c)
}

func TestRequireAPIKey(t *testing.T) {
	require.NoError(t, callWithKey(t, "secret", "secret"))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, callWithKey(t, "secret", "wrong"), &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)

	require.ErrorAs(t, callWithKey(t, "secret", ""), &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)

	// Unconfigured key fails closed
	require.ErrorAs(t, callWithKey(t, "", "anything"), &httpErr)
	require.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}

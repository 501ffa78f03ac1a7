package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
)

func onlyConnect(routePath string) bool { return routePath == connectPath }

// limitedEcho mounts an always-OK handler on every path in paths behind the
// limiter.
func limitedEcho(perSecond float64, burst int, paths ...string) *echo.Echo {
	e := echo.New()
	e.Use(newRateLimiter(perSecond, burst, onlyConnect))
	for _, p := range paths {
		e.POST(p, func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	}
	return e
}

func post(e *echo.Echo, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_ConnectBurstThenDenied(t *testing.T) {
	e := limitedEcho(0.5, 2, connectPath)

	for range 2 {
		require.Equal(t, http.StatusOK, post(e, connectPath, "127.0.0.1:50000").Code)
	}

	rec := post(e, connectPath, "127.0.0.1:50000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, string(apperrors.TypeRateLimited), body.Get("type").String())
	assert.Equal(t, "POST "+connectPath, body.Get("context.route").String())
}

func TestRateLimiter_TabsShareOneBucket(t *testing.T) {
	e := limitedEcho(0.01, 1, connectPath)

	require.Equal(t, http.StatusOK, post(e, connectPath, "127.0.0.1:50000").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(e, connectPath, "127.0.0.1:50001").Code)
}

func TestRateLimiter_OtherRoutesAreUnlimited(t *testing.T) {
	swap := apiRoot + "/client/servers/swap"
	e := limitedEcho(0.01, 1, connectPath, swap)

	require.Equal(t, http.StatusOK, post(e, connectPath, "127.0.0.1:50000").Code)
	for range 5 {
		assert.Equal(t, http.StatusOK, post(e, swap, "127.0.0.1:50000").Code)
	}
}

package httpserver

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
	"github.com/pscheid92/themebridge/internal/route"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter throttles the routes limited reports true for. Every caller
// is the local page, so each limited route has one bucket shared by all
// tabs instead of one per client address.
func newRateLimiter(perSecond float64, burst int, limited func(routePath string) bool) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: rateLimiterExpiry,
	})
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/perSecond))))

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return !limited(c.Path())
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.Request().Method + " " + c.Path(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			c.Response().Header().Set("Retry-After", retryAfter)
			return route.WriteError(c, apperrors.RateLimitedError("too many requests, try again shortly").
				WithField("route", identifier))
		},
	})
}

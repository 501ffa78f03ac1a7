package httpserver

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/themebridge/internal/platform/correlation"
	"github.com/pscheid92/themebridge/internal/route"
)

const correlationHeader = "X-Correlation-ID"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlationHeader))
		c.Response().Header().Set(correlationHeader, id)
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware renders errors returned by plain Echo handlers the
// same way the route tree renders handler errors. Echo's own HTTP errors,
// such as 404 for unknown methods, pass through to Echo's error handler.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			return route.WriteError(c, err)
		}
	}
}

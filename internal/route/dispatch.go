package route

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
)

const maxBodyBytes = 4 << 20

// Request is what a handler sees of an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
	Context context.Context
}

type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func dispatch(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return WriteError(c, apperrors.ValidationError("failed to read request body"))
		}

		req := &Request{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.Query(),
			Header:  r.Header,
			Body:    body,
			Context: r.Context(),
		}

		resp, err := invoke(h, req)
		if err != nil {
			return WriteError(c, err)
		}
		if resp == nil {
			return c.NoContent(http.StatusNoContent)
		}
		return c.Blob(resp.Status, resp.ContentType, resp.Body)
	}
}

func invoke(h Handler, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(req.Context, "Handler panicked",
				"method", req.Method, "path", req.Path, "panic", r, "stack", string(debug.Stack()))
			resp = nil
			err = apperrors.InternalError(fmt.Sprintf("handler panicked: %v", r), nil)
		}
	}()
	return h(req)
}

// WriteError renders err as a structured JSON error and logs it once.
func WriteError(c echo.Context, err error) error {
	structuredErr := apperrors.AsStructuredError(err)
	logError(c, structuredErr)

	if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil && err.Type == apperrors.TypeInternal {
		attrs = append(attrs, "cause", err.Cause)
	}
	slog.Log(c.Request().Context(), err.Type.LogLevel(), "Request failed", attrs...)
}

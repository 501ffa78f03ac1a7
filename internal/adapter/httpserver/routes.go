package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
	"github.com/pscheid92/themebridge/internal/route"
)

const (
	apiRoot      = "/api/v1"
	connectPath  = apiRoot + "/client/servers/connect"
	connectBurst = 3
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(ErrorHandlingMiddleware())
	if s.deps.HTTPMetrics != nil {
		s.echo.Use(s.deps.HTTPMetrics.Middleware())
	}
	if s.deps.ConnectRate > 0 {
		s.echo.Use(newRateLimiter(s.deps.ConnectRate, connectBurst, func(routePath string) bool {
			return routePath == connectPath
		}))
	}

	s.registerHealthRoutes()
	if s.deps.Registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.deps.Registry)))
	}
	if s.deps.Events != nil {
		s.echo.GET(apiRoot+"/events", echo.WrapHandler(s.deps.Events))
	}

	s.tree.Group(apiRoot+"/client", func(client *route.Node) {
		client.Group("servers", s.registerServerRoutes)
		client.Group("theme", s.registerThemeRoutes)
		client.Group("integration", s.registerIntegrationRoutes)
		client.Group("components", s.registerComponentRoutes)
	})
	s.tree.Fallback(route.Static(s.deps.Themes))
	s.tree.Mount(s.echo)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			level := slog.LevelDebug
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			slog.Log(c.Request().Context(), level, "Request", attrs...)
			return nil
		},
	})
}

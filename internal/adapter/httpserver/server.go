package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
	"github.com/pscheid92/themebridge/internal/app"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/overlay"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/route"
	"github.com/pscheid92/themebridge/internal/serverlist"
	"github.com/pscheid92/themebridge/internal/theme"
)

type themeService interface {
	route.Assets
	Active() *theme.Theme
	List() ([]*theme.Theme, error)
	SetActive(ctx context.Context, name string) error
	Unset(ctx context.Context)
	Route(screen *domain.Screen, markStatic bool) (theme.Route, error)
}

type serverService interface {
	List(ctx context.Context) []serverlist.Indexed
	Connect(address string) (domain.ServerEntry, error)
	Add(ctx context.Context, name, address string) error
	Remove(ctx context.Context, index int) error
	Edit(ctx context.Context, index int, name, address string) error
	Swap(ctx context.Context, from, to int) error
	Reorder(ctx context.Context, order []int) error
}

type integrationService interface {
	Menu() []app.MenuEntry
	Reset(ctx context.Context) error
	Override(ctx context.Context, url string) error
}

type Deps struct {
	Themes      themeService
	Servers     serverService
	Integration integrationService
	Overlay     *overlay.State
	Protocol    *protocol.Protocol

	// Events serves the live update websocket.
	Events http.Handler

	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	// ConnectRate bounds connect requests per second. Zero disables the limit.
	ConnectRate float64
}

// Server is the HTTP face of the bridge: the route tree of API modules, the
// theme asset fallback, and the operational endpoints.
type Server struct {
	echo *echo.Echo
	tree *route.Tree
	deps Deps

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(deps Deps, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		tree:         route.New(),
		deps:         deps,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler is what the listener serves.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Routes lists the mounted API routes.
func (s *Server) Routes() []string {
	return s.tree.Routes()
}

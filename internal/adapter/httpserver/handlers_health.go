package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/pscheid92/themebridge/internal/platform/version"
)

const readinessTimeout = 2 * time.Second

// Readiness states. A failing optional check only degrades the bridge.
const (
	statusReady       = "ready"
	statusDegraded    = "degraded"
	statusUnavailable = "unavailable"
)

// HealthCheck probes one dependency of the bridge. Optional checks cover
// dependencies the UI keeps working without, such as a remote config store.
type HealthCheck struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

type checkResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status string        `json:"status"`
	Theme  string        `json:"theme,omitempty"`
	Checks []checkResult `json:"checks"`
}

type pageCounter interface {
	PageCount() int
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleLiveness answers whenever the listener serves, along with how many
// pages hold the live channel open.
func (s *Server) handleLiveness(c echo.Context) error {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if pages, ok := s.deps.Events.(pageCounter); ok {
		body["pages"] = pages.PageCount()
	}
	return c.JSON(http.StatusOK, body)
}

// handleReadiness runs every check concurrently and reports all results, not
// just the first failure.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	results := make([]checkResult, len(s.healthChecks))
	var g errgroup.Group
	for i, hc := range s.healthChecks {
		g.Go(func() error {
			results[i] = runCheck(ctx, hc)
			return nil
		})
	}
	_ = g.Wait()

	resp := readinessResponse{Status: statusReady, Checks: results}
	if s.deps.Themes != nil {
		if active := s.deps.Themes.Active(); active != nil {
			resp.Theme = active.Name
		}
	}

	for _, r := range results {
		switch {
		case r.OK:
		case r.Optional:
			if resp.Status == statusReady {
				resp.Status = statusDegraded
			}
		default:
			resp.Status = statusUnavailable
		}
	}

	code := http.StatusOK
	if resp.Status == statusUnavailable {
		code = http.StatusServiceUnavailable
		slog.WarnContext(ctx, "Bridge not ready", "checks", results)
	}
	return c.JSON(code, resp)
}

func runCheck(ctx context.Context, hc HealthCheck) checkResult {
	res := checkResult{Name: hc.Name, Optional: hc.Optional, OK: true}
	if err := hc.Check(ctx); err != nil {
		res.OK = false
		res.Error = err.Error()
	}
	return res
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

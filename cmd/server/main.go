package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/themebridge/internal/adapter/eventpublisher"
	"github.com/pscheid92/themebridge/internal/adapter/filestore"
	"github.com/pscheid92/themebridge/internal/adapter/host"
	"github.com/pscheid92/themebridge/internal/adapter/httpserver"
	"github.com/pscheid92/themebridge/internal/adapter/metrics"
	"github.com/pscheid92/themebridge/internal/adapter/redis"
	"github.com/pscheid92/themebridge/internal/adapter/sqlite"
	"github.com/pscheid92/themebridge/internal/app"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/listener"
	"github.com/pscheid92/themebridge/internal/liveupdate"
	"github.com/pscheid92/themebridge/internal/mainthread"
	"github.com/pscheid92/themebridge/internal/overlay"
	"github.com/pscheid92/themebridge/internal/platform/config"
	"github.com/pscheid92/themebridge/internal/platform/logging"
	"github.com/pscheid92/themebridge/internal/platform/version"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/serverlist"
	"github.com/pscheid92/themebridge/internal/theme"
)

const (
	maxPages         = 16
	configCacheTTL   = 10 * time.Second
	evictionPeriod   = time.Minute
	connectRate      = 2.0
	sessionEvent     = "session"
	storeOpenTimeout = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

type configStore struct {
	store  domain.ConfigStore
	redis  *goredis.Client
	mirror eventpublisher.Sink
	stop   func()
}

// setupConfigStore uses Redis when REDIS_URL is set and the config folder
// otherwise.
func setupConfigStore(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*configStore, error) {
	if cfg.RedisURL == "" {
		store, err := filestore.New(cfg.ConfigDir())
		if err != nil {
			return nil, err
		}
		return &configStore{store: store, stop: func() {}}, nil
	}

	redisMetrics := metrics.NewRedisMetrics(reg)
	client, err := redis.NewClient(ctx, cfg.RedisURL,
		redis.NewMetricsHook(redisMetrics),
		redis.NewBreakerHook(redisMetrics),
	)
	if err != nil {
		return nil, err
	}
	store := redis.NewConfigStore(client, configCacheTTL)
	subCtx, cancel := context.WithCancel(context.Background())
	go store.Subscribe(subCtx)
	stopEviction := store.StartEvictionTimer(evictionPeriod)

	return &configStore{
		store:  store,
		redis:  client,
		mirror: redis.NewEventChannel(client),
		stop: func() {
			cancel()
			stopEviction()
			_ = client.Close()
		},
	}, nil
}

// healthChecks covers what the UI cannot work without. Redis only backs
// config persistence, so losing it degrades the bridge instead.
func healthChecks(db *sql.DB, cs *configStore, themesDir string, executor *mainthread.Executor) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "sqlite", Check: db.PingContext},
		{Name: "themes", Check: func(context.Context) error {
			_, err := os.Stat(filepath.Join(themesDir, theme.DefaultName))
			return err
		}},
		{Name: "host loop", Check: func(ctx context.Context) error {
			return executor.Run(ctx, func() error { return nil })
		}},
	}
	if cs.redis != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Optional: true, Check: func(ctx context.Context) error {
			return cs.redis.Ping(ctx).Err()
		}})
	}
	return checks
}

func main() {
	os.Exit(run())
}

func run() int {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "version", version.Get().Version, "root", cfg.RootDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()

	openCtx, cancelOpen := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancelOpen()

	cs, err := setupConfigStore(openCtx, cfg, reg)
	if err != nil {
		slog.Error("Failed to set up config store", "error", err)
		return 1
	}
	defer cs.stop()

	db, err := sqlite.Open(openCtx, cfg.ServerListPath())
	if err != nil {
		slog.Error("Failed to open server list database", "error", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	proto := protocol.New(
		protocol.WithLogger(logging.Logger),
		protocol.WithProtocolVersion(cfg.ProtocolVersion),
	)

	// The theme manager builds URLs from the listener's port, which is only
	// known once bound.
	var lst *listener.Manager
	baseURL := func() string { return lst.BaseURL() }

	themes, err := theme.NewManager(cfg.ThemesDir(), baseURL, cs.store)
	if err != nil {
		slog.Error("Failed to set up themes", "error", err)
		return 1
	}
	themes.Restore(ctx)

	hub := liveupdate.NewHub(clock, metrics.NewLiveUpdateMetrics(reg), maxPages,
		liveupdate.WithSnapshotEvents(app.EventThemeChanged, app.EventComponentsUpdated, sessionEvent))
	var mirrors []eventpublisher.Sink
	if cs.mirror != nil {
		mirrors = append(mirrors, cs.mirror)
	}
	publisher := eventpublisher.New(hub, mirrors...)

	// The executor outlives the request context so shutdown can still close
	// surfaces on it.
	executor := mainthread.NewExecutor(clock)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go executor.Loop(loopCtx, cfg.TickInterval)
	defer func() {
		hub.Stop()
		stopLoop()
		executor.Stop()
	}()

	browser := host.NewBrowser()
	connector := &host.Connector{}

	overlayState := overlay.NewState(nil)
	integration := app.NewIntegration(app.Deps{
		Themes:      themes,
		Overlay:     overlayState,
		Persistence: overlay.NewPersistence(cs.store, proto.Table(protocol.Stripped)),
		Publisher:   publisher,
		Browser:     browser,
		Executor:    executor,
		Protocol:    proto,
	})

	pinger := serverlist.NewPinger(serverlist.DialProber{Timeout: cfg.PingTimeout}, serverlist.PingerOptions{
		Rate:    cfg.PingRate,
		Timeout: cfg.PingTimeout,
		Metrics: metrics.NewServerListMetrics(reg),
	})
	servers, err := serverlist.NewService(ctx, sqlite.NewServerRepo(db), pinger, executor, connector)
	if err != nil {
		slog.Error("Failed to load server list", "error", err)
		return 1
	}

	ticker := app.NewDataTicker(clock, cfg.TickInterval, proto.Table(protocol.Full), publisher)
	ticker.Track(sessionEvent, host.NewSession(clock, connector).Read)

	srv := httpserver.NewServer(httpserver.Deps{
		Themes:      themes,
		Servers:     servers,
		Integration: integration,
		Overlay:     overlayState,
		Protocol:    proto,
		Events:      hub,
		Registry:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		ConnectRate: connectRate,
	}, healthChecks(db, cs, cfg.ThemesDir(), executor))

	// MAX_PORT_ATTEMPTS=0 means no retry; the listener reads zero as its default.
	portAttempts := cfg.MaxPortAttempts
	if portAttempts == 0 {
		portAttempts = -1
	}
	lst = listener.New(srv.Handler(), listener.Options{
		MaxPortAttempts: portAttempts,
		Workers:         cfg.Workers,
		Metrics:         metrics.NewListenerMetrics(reg),
		Fatal: func(err error) {
			slog.Error("Embedded server unavailable, UI is disabled", "error", err)
		},
	})

	exitCode := 0
	defer shutdown(lst, integration, pinger, cfg.ShutdownTimeout)

	if err := lst.Start(ctx, cfg.Port); err != nil {
		return 1
	}
	slog.Info("Server started", "url", lst.BaseURL(), "backend", lst.Backend(), "routes", len(srv.Routes()))

	if err := integration.Open(ctx); err != nil {
		slog.Error("Failed to open integration", "error", err)
		exitCode = 1
	}

	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go ticker.Run(tickCtx)

	if exitCode == 0 {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received, cleaning up...")
		case <-lst.Done():
			if lst.State() == listener.Failed {
				exitCode = 1
			}
		}
	}
	return exitCode
}

// shutdown runs on every exit path once the listener was created. Surfaces
// close first while the executor still drains, then the listener waits for
// in-flight requests. The hub and executor are stopped by run afterwards.
func shutdown(lst *listener.Manager, integration *app.Integration, pinger *serverlist.Pinger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := integration.Close(ctx); err != nil && !errors.Is(err, mainthread.ErrStopped) {
		slog.Error("Failed to close browser surfaces", "error", err)
	}
	if err := lst.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	pinger.Wait()

	slog.Info("Shutdown complete")
}

// Package listener owns the loopback server socket: binding with retry on
// port conflicts, serving through a bounded worker pool, and graceful
// shutdown.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
	"github.com/pscheid92/themebridge/internal/platform/logging"
	"github.com/pscheid92/themebridge/internal/platform/retry"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultMaxPortAttempts = 100
	maxPort                = 65535
	readHeaderTimeout      = 10 * time.Second
)

var (
	// ErrBindConflict means the port is taken; the next port is tried.
	ErrBindConflict = errors.New("port already in use")
	// ErrBindFatal means no port could be bound. The server does not start.
	ErrBindFatal = errors.New("failed to bind listener")
)

type State int

const (
	Stopped State = iota
	Starting
	Running
	Failed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Failed:
		return "failed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

type Options struct {
	Host string
	// MaxPortAttempts is how many ports above the base port are tried. Zero
	// means DefaultMaxPortAttempts; a negative value disables the retry.
	MaxPortAttempts int
	Workers         int
	// Fatal receives bind failures. It is the process-wide error channel.
	Fatal   func(error)
	Metrics *metrics.ListenerMetrics
}

type Manager struct {
	handler http.Handler
	opts    Options
	backend backend
	limiter *WorkerLimiter

	mu     sync.Mutex
	state  State
	port   int
	server *http.Server
	done   chan struct{}
}

func New(handler http.Handler, opts Options) *Manager {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	switch {
	case opts.MaxPortAttempts == 0:
		opts.MaxPortAttempts = DefaultMaxPortAttempts
	case opts.MaxPortAttempts < 0:
		opts.MaxPortAttempts = 0
	}
	if opts.Fatal == nil {
		opts.Fatal = func(error) {}
	}
	return &Manager{
		handler: handler,
		opts:    opts,
		backend: platformBackend(),
		limiter: NewWorkerLimiter(opts.Workers, opts.Metrics),
	}
}

// Start binds basePort, or the first free port above it, and serves in the
// background. Bind conflicts are retried one port higher, sequentially, up
// to MaxPortAttempts above basePort. Any other bind error, or running out of
// ports, is fatal: it is reported through Options.Fatal and returned.
func (m *Manager) Start(ctx context.Context, basePort int) error {
	m.mu.Lock()
	if m.state == Starting || m.state == Running {
		m.mu.Unlock()
		return fmt.Errorf("listener already %s", m.state)
	}
	m.state = Starting
	m.mu.Unlock()

	slog.Info("Starting listener", "backend", m.backend.Name(), "base_port", basePort)

	ln, port, err := m.bind(ctx, basePort)
	if err != nil {
		m.fail(err)
		return err
	}

	server := &http.Server{
		Handler:           m.limiter.Wrap(m.handler),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	done := make(chan struct{})

	m.mu.Lock()
	m.state = Running
	m.port = port
	m.server = server
	m.done = done
	m.mu.Unlock()
	m.setPortGauge(port)

	go m.serve(server, ln, done)

	logging.WithPort(port).Info("Listener started", "backend", m.backend.Name())
	return nil
}

func (m *Manager) bind(ctx context.Context, basePort int) (net.Listener, int, error) {
	policy := retry.Policy{
		MaxAttempts: m.opts.MaxPortAttempts + 1,
		OnRetry: func(attempt int, err error, _ time.Duration) {
			logging.WithPort(basePort+attempt-1).Warn("Port in use, trying next port", "error", err)
		},
	}

	type bound struct {
		ln   net.Listener
		port int
	}

	result, err := retry.Do(ctx, policy, classifyBind, func(attempt int) (bound, error) {
		port := basePort + attempt - 1
		if port < 1 || port > maxPort {
			return bound{}, fmt.Errorf("port %d out of range", port)
		}

		addr := net.JoinHostPort(m.opts.Host, strconv.Itoa(port))
		ln, err := m.backend.Listen(ctx, addr)
		if err == nil {
			m.countAttempt("bound")
			return bound{ln: ln, port: port}, nil
		}
		if errors.Is(err, syscall.EADDRINUSE) {
			m.countAttempt("conflict")
			return bound{}, fmt.Errorf("%w: %d", ErrBindConflict, port)
		}
		logging.WithPort(port).Error("Bind failed", "error", err)
		return bound{}, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrBindFatal, err)
	}
	return result.ln, result.port, nil
}

func classifyBind(err error) retry.Action {
	if errors.Is(err, ErrBindConflict) {
		return retry.Retry
	}
	return retry.Stop
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.state = Failed
	m.port = 0
	m.mu.Unlock()
	m.countAttempt("fatal")
	m.setPortGauge(0)

	slog.Error("Listener failed to bind to any port", "error", err)
	m.opts.Fatal(err)
}

func (m *Manager) serve(server *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)

	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}

	m.mu.Lock()
	m.state = Failed
	m.mu.Unlock()
	slog.Error("Listener stopped unexpectedly", "error", err)
	m.opts.Fatal(err)
}

// Shutdown stops accepting connections, waits for in-flight requests and
// releases the socket.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	server, done := m.server, m.done
	m.server = nil
	m.mu.Unlock()

	if server == nil {
		return nil
	}

	err := server.Shutdown(ctx)
	if err == nil {
		<-done
	}

	m.mu.Lock()
	m.state = Stopped
	m.port = 0
	m.mu.Unlock()
	m.setPortGauge(0)

	slog.Info("Listener stopped")
	if err != nil {
		return fmt.Errorf("listener shutdown: %w", err)
	}
	return nil
}

// Done is closed when serving ends. It is nil before Start succeeds.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Port() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

func (m *Manager) Backend() string { return m.backend.Name() }

// BaseURL is the root every page and API URL is built from.
func (m *Manager) BaseURL() string {
	return "http://" + net.JoinHostPort(m.opts.Host, strconv.Itoa(m.Port()))
}

func (m *Manager) countAttempt(outcome string) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.BindAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Manager) setPortGauge(port int) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.Port.Set(float64(port))
	}
}

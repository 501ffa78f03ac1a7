package serverlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
	"github.com/pscheid92/themebridge/internal/domain"
)

const (
	// CannotConnectLabel replaces the motd of a server that did not answer.
	CannotConnectLabel = "Can't connect to server"

	defaultPingWorkers = 10
	defaultPort        = "25565"
)

// Status is the live part of an entry as reported by a ping.
type Status struct {
	Online           bool
	Ping             int64
	Label            string
	PlayerCountLabel string
	Version          string
	ProtocolVersion  int
	Players          *domain.PlayerCount
	PlayerList       []string
}

func (s Status) apply(e *domain.ServerEntry) {
	e.Online = s.Online
	e.Ping = s.Ping
	e.Label = s.Label
	e.PlayerCountLabel = s.PlayerCountLabel
	e.Version = s.Version
	e.ProtocolVersion = s.ProtocolVersion
	e.Players = s.Players
	e.PlayerList = s.PlayerList
}

func failedStatus() Status {
	return Status{Online: true, Ping: domain.PingFailed, Label: CannotConnectLabel}
}

// Prober asks one server for its status.
type Prober interface {
	Probe(ctx context.Context, address string) (Status, error)
}

// DialProber measures the TCP connect round trip. It reports no motd,
// version or players; hosts with a status protocol plug in their own Prober.
type DialProber struct {
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context, address string) (Status, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, defaultPort)
	}

	dialer := net.Dialer{Timeout: p.Timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Status{}, err
	}
	rtt := time.Since(start)
	_ = conn.Close()

	return Status{Online: true, Ping: rtt.Milliseconds()}, nil
}

type PingerOptions struct {
	// Workers bounds concurrent pings. Defaults to 10.
	Workers int
	// Rate paces ping dispatch, in pings per second.
	Rate    float64
	Timeout time.Duration
	Metrics *metrics.ServerListMetrics
}

// Pinger pings servers in the background. Concurrent pings of the same
// address share one probe, and a run of failures opens a breaker that fails
// further pings fast until it half-opens again.
type Pinger struct {
	prober  Prober
	opts    PingerOptions
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group

	wg sync.WaitGroup
}

func NewPinger(prober Prober, opts PingerOptions) *Pinger {
	if opts.Workers < 1 {
		opts.Workers = defaultPingWorkers
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	p := &Pinger{
		prober:  prober,
		opts:    opts,
		limiter: rate.NewLimiter(limit, opts.Workers),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "serverlist-ping",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.9
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if opts.Metrics != nil {
				opts.Metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return p
}

// PingAll pings every address in the background and reports each result
// through onResult. It returns immediately.
func (p *Pinger) PingAll(ctx context.Context, addresses []string, onResult func(address string, status Status)) {
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		var g errgroup.Group
		g.SetLimit(p.opts.Workers)
		for _, address := range addresses {
			g.Go(func() error {
				onResult(address, p.Ping(ctx, address))
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Ping probes one address. Failures are logged and turned into the
// "can't connect" status.
func (p *Pinger) Ping(ctx context.Context, address string) Status {
	v, err, _ := p.group.Do(address, func() (any, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return p.breaker.Execute(func() (any, error) {
			return p.probe(ctx, address)
		})
	})
	if err != nil {
		p.count("failed")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Debug("Ping skipped, breaker open", "address", address)
		} else {
			slog.Error("Failed to ping server", "address", address, "error", err)
		}
		return failedStatus()
	}
	p.count("ok")
	return v.(Status)
}

func (p *Pinger) probe(ctx context.Context, address string) (Status, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := p.prober.Probe(ctx, address)
	if p.opts.Metrics != nil {
		p.opts.Metrics.PingDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return Status{}, fmt.Errorf("ping %s: %w", address, err)
	}
	return status, nil
}

func (p *Pinger) count(result string) {
	if p.opts.Metrics != nil {
		p.opts.Metrics.Pings.WithLabelValues(result).Inc()
	}
}

// Wait blocks until every running PingAll has finished.
func (p *Pinger) Wait() {
	p.wg.Wait()
}

package dirserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/infra/ratelimit"
)

// Directory is the set of operations the dispatcher executes.
type Directory interface {
	Register(ctx context.Context, id string) error
	Unregister(ctx context.Context, id string) error
	Connect(ctx context.Context, id string, ep domain.Endpoint) error
	Disconnect(ctx context.Context, id string) error
	Publish(ctx context.Context, id string, entry domain.CatalogEntry) error
	Delete(ctx context.Context, id, name string) error
	ListUsers(ctx context.Context, id string) ([]domain.Session, error)
	ListContent(ctx context.Context, id, target string) ([]domain.CatalogEntry, error)
}

// Metrics receives request and connection measurements.
type Metrics interface {
	ObserveRequest(op, status string, d time.Duration)
	ConnectionAccepted()
	ConnectionRejected(reason string)
	ProtocolError(state string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, string, time.Duration) {}
func (noopMetrics) ConnectionAccepted() {}
func (noopMetrics) ConnectionRejected(string) {}
func (noopMetrics) ProtocolError(string) {}

// Server is the directory protocol server.
type Server struct {
	cfg     *Config
	dir     Directory
	logger  *slog.Logger
	metrics Metrics
	limiter *ratelimit.Registry

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a directory protocol server. A nil metrics discards
// measurements.
func New(cfg *Config, dir Directory, metrics Metrics, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Server{
		cfg:     cfg,
		dir:     dir,
		logger:  logger,
		metrics: metrics,
		limiter: ratelimit.New(cfg.RateLimit, cfg.RateBurst, 0),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	network := s.cfg.Network
	if network == "" {
		network = "tcp4"
	}
	ln, err := net.Listen(network, s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("directory server listening",
		"address", ln.Addr().String(),
		"serialize", s.cfg.Serialize,
		"status_codes", s.cfg.Codes.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("directory server accept error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and waits for in-flight connections. If ctx
// ends first the remaining connections are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return firstErr
	case <-ctx.Done():
		s.closeConns()
		<-done
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		s.metrics.ConnectionAccepted()

		ip := peerIP(c.RemoteAddr())
		if !s.limiter.Allow(ip) {
			s.metrics.ConnectionRejected("rate_limited")
			s.logger.Warn("connection rate limited", "remote", ip)
			_ = c.Close()
			continue
		}

		s.track(c, true)
		s.wg.Add(1)
		done := make(chan struct{})
		go func() {
			defer s.wg.Done()
			defer close(done)
			defer s.track(c, false)
			s.serveConn(ctx, c, ip)
		}()

		if s.cfg.Serialize {
			<-done
		}
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn, ip string) {
	defer c.Close()
	d := newDispatcher(c, ip, s)
	d.run(ctx)
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
	if n := len(s.conns); n > 0 {
		s.logger.Warn("closed connections on shutdown timeout", "count", n)
	}
}

// peerIP returns the textual IP of addr. IPv4-mapped addresses are
// reported in dotted form.
func peerIP(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		if v4 := tcp.IP.To4(); v4 != nil {
			return v4.String()
		}
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

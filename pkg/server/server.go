package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mocks-server/mocks-server/pkg/config"
	"github.com/mocks-server/mocks-server/pkg/logging"
	"github.com/mocks-server/mocks-server/pkg/metrics"
	"github.com/mocks-server/mocks-server/pkg/mock"
)

// Default option values.
const (
	DefaultPort = 3100
	DefaultHost = "0.0.0.0"

	// RequestIDHeader carries the request id on requests and responses.
	RequestIDHeader = "X-Request-Id"

	shutdownTimeout = 5 * time.Second
)

var (
	// ErrAlreadyStarted is returned by Start when the server is running.
	ErrAlreadyStarted = errors.New("server already started")
	// ErrNotStarted is returned by Addr when the server is not running.
	ErrNotStarted = errors.New("server not started")
)

// OptionDefinitions are declared by the server in its namespace.
var OptionDefinitions = []config.OptionDefinition{
	{
		Name:        "port",
		Description: "Port number for the server to be listening at",
		Type:        config.TypeNumber,
		Default:     DefaultPort,
	},
	{
		Name:        "host",
		Description: "Host for the server",
		Type:        config.TypeString,
		Default:     DefaultHost,
	},
	{
		Name:        "cors",
		Description: "CORS policy. Set enabled to false to disable it",
		Type:        config.TypeObject,
		Default:     DefaultCORS(),
	},
}

// Server serves mounted routers and the active mock collection.
type Server struct {
	mock    *mock.Mock
	metrics *metrics.Registry
	log     *slog.Logger

	port *config.Option
	host *config.Option
	cors *config.Option

	// lifecycle serializes Start, Stop and Restart. mu guards the fields
	// below and is never held while shutting down.
	lifecycle sync.Mutex
	restarts  sync.WaitGroup

	mu         sync.RWMutex
	routers    routers
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the registry requests are recorded in.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// New declares the server options in ns and returns a server answering
// with m.
func New(ns *config.Namespace, m *mock.Mock, opts ...Option) (*Server, error) {
	s := &Server{
		mock: m,
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	declared, err := ns.AddOptions(OptionDefinitions)
	if err != nil {
		return nil, fmt.Errorf("declaring server options: %w", err)
	}
	s.port, s.host, s.cors = declared[0], declared[1], declared[2]

	restart := func(any) { s.restartAsync() }
	s.port.OnChange(restart)
	s.host.OnChange(restart)
	return s, nil
}

// AddRouter mounts h under path. Mounting on an already used path replaces
// the previous router.
func (s *Server) AddRouter(path string, h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routers = s.routers.add(path, h)
	s.log.Debug("router mounted", "path", cleanMountPath(path))
}

// RemoveRouter unmounts the router on path.
func (s *Server) RemoveRouter(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routers = s.routers.remove(path)
	s.log.Debug("router removed", "path", cleanMountPath(path))
}

// Address returns host:port from the current option values.
func (s *Server) Address() string {
	host, _ := s.host.Value().(string)
	port, _ := s.port.Value().(float64)
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() (net.Addr, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil, ErrNotStarted
	}
	return s.listener.Addr(), nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr, err := s.Addr()
	if err != nil {
		return ""
	}
	host, port, _ := net.SplitHostPort(addr.String())
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Running reports whether the server is listening.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}

// Start listens on the configured host and port and serves in the
// background.
func (s *Server) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.start(ctx)
}

func (s *Server) start(ctx context.Context) error {
	if s.Running() {
		return ErrAlreadyStarted
	}
	addr := s.Address()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}
	done := make(chan struct{})
	s.mu.Lock()
	s.httpServer, s.listener, s.done = srv, ln, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", "error", err)
		}
	}()

	s.log.Info("server started", "address", ln.Addr().String())
	return nil
}

// Stop shuts the server down gracefully. Stopping a stopped server is a
// no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.stop(ctx)
}

func (s *Server) stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpServer, s.done
	s.httpServer, s.listener, s.done = nil, nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	if err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Restart stops the server and starts it again with the current options.
func (s *Server) Restart(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if err := s.stop(ctx); err != nil {
		return err
	}
	return s.start(ctx)
}

// restartAsync restarts a running server outside of the caller. Option
// changes may come from a request served by this same server, which would
// deadlock a synchronous shutdown.
func (s *Server) restartAsync() {
	if !s.Running() {
		return
	}
	s.restarts.Add(1)
	go func() {
		defer s.restarts.Done()
		s.log.Info("restarting server", "address", s.Address())
		if err := s.Restart(context.Background()); err != nil {
			s.log.Error("error restarting server", "error", err)
		}
	}()
}

// WaitRestarts blocks until pending option triggered restarts are done.
func (s *Server) WaitRestarts() {
	s.restarts.Wait()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	sw := newStatusWriter(w)

	s.log.Debug("request received",
		"requestId", requestID,
		"method", r.Method,
		"url", r.URL.String(),
	)

	route, variant := s.serve(sw, r)

	if s.metrics != nil {
		s.metrics.ObserveRequest(route, variant, sw.statusCode, time.Since(start))
	}
}

// serve dispatches r and returns the metric labels of whatever answered it.
func (s *Server) serve(w http.ResponseWriter, r *http.Request) (route, variant string) {
	if decodeCORS(s.cors.Value()).apply(w, r, s.hasMock) {
		return metrics.LabelNone, metrics.LabelNone
	}

	s.mu.RLock()
	m, ok := s.routers.find(r.URL.Path)
	s.mu.RUnlock()
	if ok {
		m.handler.ServeHTTP(w, strip(m.path, r))
		return m.path, metrics.LabelRouter
	}

	match, ok := s.mock.Match(r)
	if !ok {
		s.log.Debug("no route matched", "method", r.Method, "url", r.URL.Path)
		s.mock.ServeHTTP(w, r)
		return metrics.LabelNone, metrics.LabelNone
	}
	s.log.Debug("serving route variant", "variant", match.Variant.ID)
	if err := mock.Wait(r.Context(), match.Delay); err != nil {
		return match.Variant.Route.ID, match.Variant.VariantID
	}
	match.ServeHTTP(w, r)
	return match.Variant.Route.ID, match.Variant.VariantID
}

func (s *Server) hasMock(r *http.Request) bool {
	_, ok := s.mock.Match(r)
	return ok
}

// Package reactor is the single-threaded HTTP/1.1 and WebSocket I/O core:
// one event loop owns all socket state, decodes incoming bytes into
// complete protocol messages via httpwire/wswire, dispatches them to a
// Handler, and serializes outbound buffers back to each peer while
// preserving per-connection ordering and keep-alive lifecycle.
//
// Thread-pool workers that execute Handler callbacks are an external
// collaborator (see workerpool) that this package never imports — it only
// ever receives writes back through Channel.TryWrite.
package reactor

import (
	"errors"
	"strconv"

	"github.com/riftio/reactorhttp/control"
)

// Server is the public construction/lifecycle surface of spec §6.
type Server struct {
	cfg  *Config
	loop *Loop
}

// New constructs a Server. handler must be non-nil.
func New(handler Handler, opts ...Option) (*Server, error) {
	if handler == nil {
		return nil, errors.New("reactor: handler must not be nil")
	}
	cfg := defaultConfig()
	cfg.Handler = handler
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.RuntimeConfig.SetConfig(map[string]any{
		"host":          cfg.Host,
		"port":          cfg.Port,
		"max_body_size": cfg.MaxBodySize,
		"max_line_size": cfg.MaxLineSize,
	})
	return &Server{cfg: cfg, loop: newLoop(cfg)}, nil
}

// Start spawns the reactor thread and begins accepting connections.
func (s *Server) Start() error {
	return s.loop.start()
}

// Stop performs the shutdown sequence of spec §5: closes the listener,
// closes every tracked socket, closes the selector, notifies the handler,
// and interrupts the reactor thread. In-flight handler work is not
// awaited.
func (s *Server) Stop() {
	s.loop.stop()
}

// Addr returns the bound listening address, useful after constructing a
// Server with port 0 to let the kernel choose an ephemeral port.
func (s *Server) Addr() string {
	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return host + ":" + strconv.Itoa(s.loop.BoundPort())
}

// Control exposes the runtime metrics registry wired in at construction,
// grounded on momentics-hioload-ws/control/metrics.go.
func (s *Server) Control() *control.MetricsRegistry {
	return s.cfg.Metrics
}

// Debug exposes the debug probe registry, grounded on
// momentics-hioload-ws/control/debug.go.
func (s *Server) Debug() *control.DebugProbes {
	return s.cfg.Debug
}

// RuntimeConfig exposes the construction-time settings snapshot, grounded
// on momentics-hioload-ws/control/config.go.
func (s *Server) RuntimeConfig() *control.ConfigStore {
	return s.cfg.RuntimeConfig
}

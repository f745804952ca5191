package reactor

import (
	"log"

	"github.com/riftio/reactorhttp/bufpool"
	"github.com/riftio/reactorhttp/control"
)

const (
	defaultMaxBodySize = 1 << 20 // 1 MiB
	defaultMaxLineSize = 8192
	defaultEpollBatch  = 128
	defaultScratchSize = 64 * 1024
)

// Config carries the construction parameters of spec §6 plus the
// epoll-batch and buffer-pool tuning this expansion adds.
type Config struct {
	Host string
	Port int

	Handler Handler

	MaxBodySize int
	MaxLineSize int

	EpollBatchSize int

	BufferPool    *bufpool.Pool
	Metrics       *control.MetricsRegistry
	Debug         *control.DebugProbes
	RuntimeConfig *control.ConfigStore
	Logger        *log.Logger
}

func defaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		MaxBodySize:    defaultMaxBodySize,
		MaxLineSize:    defaultMaxLineSize,
		EpollBatchSize: defaultEpollBatch,
		BufferPool:     bufpool.New(6), // classes start at 64 bytes
		Metrics:        control.NewMetricsRegistry(),
		Debug:          control.NewDebugProbes(),
		RuntimeConfig:  control.NewConfigStore(),
		Logger:         log.Default(),
	}
}

// Option customizes Server construction, grounded on the momentics
// server package's ServerOption/HandlerOption functional-options pattern.
type Option func(*Config)

// WithAddr sets the bind host and port.
func WithAddr(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
	}
}

// WithMaxBodySize overrides the maximum accepted HTTP request body size.
func WithMaxBodySize(n int) Option {
	return func(c *Config) { c.MaxBodySize = n }
}

// WithMaxLineSize overrides the maximum accepted HTTP request-line size.
func WithMaxLineSize(n int) Option {
	return func(c *Config) { c.MaxLineSize = n }
}

// WithEpollBatchSize overrides how many events are drained per EpollWait.
func WithEpollBatchSize(n int) Option {
	return func(c *Config) { c.EpollBatchSize = n }
}

// WithBufferPool overrides the outbound buffer pool.
func WithBufferPool(p *bufpool.Pool) Option {
	return func(c *Config) { c.BufferPool = p }
}

// WithMetrics overrides the metrics registry.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithDebugProbes overrides the debug probe registry.
func WithDebugProbes(d *control.DebugProbes) Option {
	return func(c *Config) { c.Debug = d }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

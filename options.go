package dropship

import (
	"time"

	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Dialer opens outbound connections. *net.Dialer satisfies it.
type Dialer = ports.Dialer

// Option configures optional behavior of senders and listeners.
type Option func(*options)

type options struct {
	logger       ports.Logger
	eventHandler EventHandler
	dialer       ports.Dialer
	host         string
	chunkSize    int
	dialTimeout  time.Duration
	pollTimeout  time.Duration
}

func buildOptions(opts []Option) options {
	o := options{
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for transfer and state events.
// Only listeners emit events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithChunkSize sets the payload buffer size. Default: ChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithDialTimeout bounds connection establishment. Default: 10 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

// WithDialer replaces the network dialer used by senders.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithHost sets the local address a listener binds. Default: 0.0.0.0.
func WithHost(host string) Option {
	return func(o *options) {
		o.host = host
	}
}

// WithPollTimeout sets the accept window of each receiver loop iteration.
// Default: 100 milliseconds.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) {
		o.pollTimeout = d
	}
}

package dropship

import (
	"context"
	"time"

	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/codec"
	"github.com/bft-labs/dropship/internal/domain"
)

const (
	// DefaultPort is the TCP port used when none is configured.
	DefaultPort = domain.DefaultPort

	// DefaultSaveDir is the directory received files are written to.
	DefaultSaveDir = "received_files"

	// ChunkSize is the default read/write granularity of the payload.
	ChunkSize = codec.ChunkSize
)

type (
	// Transfer describes one completed receive.
	Transfer = domain.Transfer

	// Sender pushes one file per connection. Safe for concurrent use.
	Sender = app.Sender

	// Listener is a bound receiver socket.
	Listener = app.Listener

	// Queue is a FIFO of received file paths.
	Queue = app.Queue

	// Receiver runs the accept loop feeding a Queue.
	Receiver = app.Receiver

	// State is the state of a Listener.
	State = app.State
)

// Listener states.
const (
	StateIdle      = app.StateIdle
	StateListening = app.StateListening
	StateDraining  = app.StateDraining
	StateClosed    = app.StateClosed
)

// Errors returned by dropship operations.
var (
	ErrFileNotFound      = domain.ErrFileNotFound
	ErrConnect           = domain.ErrConnect
	ErrWrite             = domain.ErrWrite
	ErrBind              = domain.ErrBind
	ErrShortRead         = domain.ErrShortRead
	ErrIO                = domain.ErrIO
	ErrInvalidName       = domain.ErrInvalidName
	ErrNoActivity        = domain.ErrNoActivity
	ErrListenerClosed    = domain.ErrListenerClosed
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrInvalidConfig     = domain.ErrInvalidConfig
)

// NewSender creates a reusable sender.
func NewSender(opts ...Option) *Sender {
	o := buildOptions(opts)
	return app.NewSender(app.SenderConfig{
		ChunkSize:   o.chunkSize,
		DialTimeout: o.dialTimeout,
		Dialer:      o.dialer,
	}, o.logger)
}

// Send transmits the file at path to host:port on a new connection.
// It returns once the whole payload has been written or on the first error.
func Send(ctx context.Context, path, host string, port int, opts ...Option) error {
	return NewSender(opts...).Send(ctx, path, host, port)
}

// Bind listens on port (0 picks a free one) and prepares saveDir.
// The listening address defaults to all interfaces; see WithHost.
func Bind(port int, saveDir string, opts ...Option) (*Listener, error) {
	o := buildOptions(opts)
	cfg := app.ListenerConfig{
		Host:      o.host,
		ChunkSize: o.chunkSize,
	}
	if o.eventHandler != nil {
		cfg.Emitter = o.eventHandler
		cfg.StateEmitter = o.eventHandler
	}
	return app.Bind(port, saveDir, cfg, o.logger)
}

// NewQueue creates an empty delivery queue.
func NewQueue() *Queue {
	return app.NewQueue()
}

// NewReceiver creates the accept loop that polls l and enqueues received
// paths on q. Start it with Run.
func NewReceiver(l *Listener, q *Queue, opts ...Option) *Receiver {
	o := buildOptions(opts)
	return app.NewReceiver(l, q, o.pollTimeout, o.logger)
}

// Consume calls fn for every path on q, in arrival order, until ctx is done.
// It sleeps for interval whenever the queue is empty.
func Consume(ctx context.Context, q *Queue, interval time.Duration, fn func(path string)) error {
	return app.Consume(ctx, q, interval, fn)
}

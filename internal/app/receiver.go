package app

import (
	"context"
	"errors"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// DefaultPollTimeout is the accept window of each accept loop iteration.
const DefaultPollTimeout = 100 * time.Millisecond

// Receiver runs the accept loop: it polls a Listener and enqueues every
// received file on a Queue.
type Receiver struct {
	listener    *Listener
	queue       *Queue
	pollTimeout time.Duration
	logger      ports.Logger
}

// NewReceiver creates an accept loop over the given listener and queue.
func NewReceiver(listener *Listener, queue *Queue, pollTimeout time.Duration, logger ports.Logger) *Receiver {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Receiver{
		listener:    listener,
		queue:       queue,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run polls the listener until ctx is canceled or the listener is closed.
// It returns ctx.Err() on cancellation and domain.ErrListenerClosed when the
// listener was closed underneath it. Cancellation is observed between polls,
// so Run returns at most one poll timeout after ctx is done unless a frame
// is being drained. After a local I/O failure, such as running out of file
// descriptors on accept, Run backs off before polling again.
func (r *Receiver) Run(ctx context.Context) error {
	backoff := NewBackoff(r.pollTimeout, DefaultBackoffMax)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		path, err := r.listener.poll(r.pollTimeout)
		if err == nil {
			backoff.Reset()
			r.queue.Enqueue(path)
			r.logger.Debug("file staged",
				ports.Path(path),
				ports.Int("queued", r.queue.Len()),
			)
			continue
		}

		if r.listener.State() == StateClosed {
			return domain.ErrListenerClosed
		}
		if errors.Is(err, domain.ErrIO) {
			r.logger.Debug("accept loop backing off", ports.Duration("delay", backoff.Current()))
			if err := backoff.Wait(ctx); err != nil {
				return err
			}
		}
	}
}

// Consume drains q until ctx is canceled, calling fn for each path in FIFO
// order. When the queue is empty it sleeps for interval before polling
// again. fn runs on the calling goroutine.
func Consume(ctx context.Context, q *Queue, interval time.Duration, fn func(path string)) error {
	if interval <= 0 {
		interval = DefaultPollTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for {
			path, ok := q.TryDequeue()
			if !ok {
				break
			}
			fn(path)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

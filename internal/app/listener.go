package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/dropship/internal/adapters/fs"
	"github.com/bft-labs/dropship/internal/codec"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// DefaultBindHost is the address a listener binds to when none is configured.
const DefaultBindHost = "0.0.0.0"

// ListenerConfig contains configuration for a Listener.
type ListenerConfig struct {
	// Host is the local address to bind. Defaults to DefaultBindHost.
	Host string

	// ChunkSize is the payload read buffer size. Defaults to codec.ChunkSize.
	ChunkSize int

	// Store overrides the staging store built on the save directory.
	Store ports.FileStore

	// Emitter receives transfer outcomes from PollOnce. Optional.
	Emitter TransferEventEmitter

	// StateEmitter receives listener state changes. Optional.
	StateEmitter StateEmitter
}

// TransferEventEmitter is called by PollOnce after every accepted connection.
type TransferEventEmitter interface {
	OnTransferComplete(t domain.Transfer)
	OnTransferError(remote string, err error)
}

// Listener accepts connections and stores one frame from each.
// The accept loop owns the listener: Receive and PollOnce must not be
// called concurrently. Close may be called from any goroutine.
type Listener struct {
	ln        *net.TCPListener
	store     ports.FileStore
	saveDir   string
	lifecycle *Lifecycle
	logger    ports.Logger
	emitter   TransferEventEmitter
	buf       []byte
}

// Bind listens on host:port and prepares saveDir, creating it if absent.
// A port that is already taken yields an error wrapping domain.ErrBind.
func Bind(port int, saveDir string, cfg ListenerConfig, logger ports.Logger) (*Listener, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultBindHost
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = codec.ChunkSize
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %w", domain.ErrBind, addr, err)
	}

	// Sweep only once the port is ours; a failed Bind must not touch saveDir.
	store := cfg.Store
	if store == nil {
		s, err := fs.NewStagingStore(saveDir)
		if err != nil {
			ln.Close()
			return nil, err
		}
		if n, err := s.RemoveStale(); err != nil {
			logger.Warn("stale staging files", ports.String("save_dir", saveDir), ports.Err(err))
		} else if n > 0 {
			logger.Info("removed stale staging files", ports.String("save_dir", saveDir), ports.Int("count", n))
		}
		store = s
	}

	l := &Listener{
		ln:        ln.(*net.TCPListener),
		store:     store,
		saveDir:   saveDir,
		lifecycle: NewLifecycle(logger, cfg.StateEmitter),
		logger:    logger,
		emitter:   cfg.Emitter,
		buf:       make([]byte, cfg.ChunkSize),
	}
	if err := l.lifecycle.TransitionTo(StateListening); err != nil {
		ln.Close()
		return nil, err
	}

	logger.Info("listening",
		ports.String("addr", l.ln.Addr().String()),
		ports.String("save_dir", saveDir),
	)
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Port returns the bound TCP port, useful when binding port 0.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// SaveDir returns the directory received files are committed to.
func (l *Listener) SaveDir() string {
	return l.saveDir
}

// State returns the current listener state.
func (l *Listener) State() State {
	return l.lifecycle.State()
}

// PollOnce waits up to timeout for one connection and receives its frame.
// It returns the saved path and true on success. It returns false when no
// peer connected in time and when the connection failed; failures are
// logged and reported to the emitter but never close the listener.
func (l *Listener) PollOnce(timeout time.Duration) (string, bool) {
	path, err := l.poll(timeout)
	return path, err == nil
}

// poll is PollOnce with the outcome kept: nil on success, otherwise the
// error Receive returned after it has been logged and reported.
func (l *Listener) poll(timeout time.Duration) (string, error) {
	t, err := l.Receive(timeout)
	switch {
	case err == nil:
		l.logger.Info("file received",
			ports.TransferID(t.ID),
			ports.String(ports.KeyName, t.Name),
			ports.Path(t.SavedPath),
			ports.Bytes(t.ByteCount),
			ports.Remote(t.SourceAddress),
			ports.Duration("duration", t.Duration()),
		)
		if l.emitter != nil {
			l.emitter.OnTransferComplete(t)
		}
		return t.SavedPath, nil

	case errors.Is(err, domain.ErrNoActivity), errors.Is(err, domain.ErrListenerClosed):
		return "", err

	default:
		l.logger.Warn("receive failed",
			ports.TransferID(t.ID),
			ports.Remote(t.SourceAddress),
			ports.Err(err),
		)
		if l.emitter != nil {
			l.emitter.OnTransferError(t.SourceAddress, err)
		}
		return "", err
	}
}

// Receive waits up to timeout for one connection and reads one frame from
// it. It returns domain.ErrNoActivity when nobody connected in time. On a
// failed transfer the returned Transfer still carries ID and SourceAddress.
// Only the accept wait is bounded; a peer that stalls mid-payload blocks
// Receive until the connection fails.
func (l *Listener) Receive(timeout time.Duration) (domain.Transfer, error) {
	if l.lifecycle.State() != StateListening {
		return domain.Transfer{}, domain.ErrListenerClosed
	}

	if err := l.ln.SetDeadline(time.Now().Add(timeout)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return domain.Transfer{}, domain.ErrListenerClosed
		}
		return domain.Transfer{}, fmt.Errorf("%w: set accept deadline: %w", domain.ErrIO, err)
	}

	conn, err := l.ln.Accept()
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			return domain.Transfer{}, domain.ErrNoActivity
		case errors.Is(err, net.ErrClosed):
			return domain.Transfer{}, domain.ErrListenerClosed
		}
		return domain.Transfer{}, fmt.Errorf("%w: accept: %w", domain.ErrIO, err)
	}
	defer conn.Close()

	if err := l.lifecycle.TransitionTo(StateDraining); err != nil {
		// Closed between the state check and Accept
		return domain.Transfer{}, domain.ErrListenerClosed
	}
	defer func() {
		if l.lifecycle.State() == StateDraining {
			_ = l.lifecycle.TransitionTo(StateListening)
		}
	}()

	return l.drain(conn)
}

// drain reads one frame from conn into the store.
func (l *Listener) drain(conn net.Conn) (domain.Transfer, error) {
	t := domain.Transfer{
		ID:            uuid.NewString(),
		SourceAddress: conn.RemoteAddr().String(),
		StartedAt:     time.Now(),
	}
	logger := ports.With(l.logger, ports.TransferID(t.ID), ports.Remote(t.SourceAddress))
	logger.Debug("connection accepted")

	h, err := codec.ReadHeader(conn)
	if err != nil {
		return t, err
	}

	staged, err := l.store.Create(h.Name)
	if err != nil {
		return t, err
	}
	t.Name = staged.Name()
	logger.Debug("receiving", ports.String(ports.KeyName, t.Name), ports.Bytes(h.Size))

	n, err := codec.CopyPayload(staged, conn, h.Size, l.buf)
	if err != nil {
		if abortErr := staged.Abort(); abortErr != nil {
			logger.Error("discard partial file", ports.Err(abortErr))
		}
		return t, err
	}

	path, err := staged.Commit()
	if err != nil {
		return t, err
	}

	t.SavedPath = path
	t.ByteCount = n
	t.CompletedAt = time.Now()
	return t, nil
}

// Close stops accepting connections. A frame being drained by the accept
// loop is read to completion or failure. Closing twice is a no-op.
func (l *Listener) Close() error {
	if err := l.lifecycle.TransitionTo(StateClosed); err != nil {
		return nil
	}
	if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	l.logger.Info("listener closed", ports.String("addr", l.ln.Addr().String()))
	return nil
}

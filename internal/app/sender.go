package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bft-labs/dropship/internal/codec"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// DefaultDialTimeout bounds connection establishment when no dialer is supplied.
const DefaultDialTimeout = 10 * time.Second

// SenderConfig contains configuration for a Sender.
type SenderConfig struct {
	// ChunkSize is the size of each payload write. Defaults to codec.ChunkSize.
	ChunkSize int

	// DialTimeout bounds connection establishment. Ignored when Dialer is set.
	DialTimeout time.Duration

	// Dialer overrides the default *net.Dialer.
	Dialer ports.Dialer
}

// Sender pushes one file per connection to a receiver.
// A Sender holds no connection between calls and is safe for concurrent use.
type Sender struct {
	chunkSize int
	dialer    ports.Dialer
	logger    ports.Logger
}

// NewSender creates a sender.
func NewSender(cfg SenderConfig, logger ports.Logger) *Sender {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = codec.ChunkSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: cfg.DialTimeout}
	}
	return &Sender{
		chunkSize: cfg.ChunkSize,
		dialer:    dialer,
		logger:    logger,
	}
}

// Send transmits the file at sourcePath to host:port over a new connection.
// The connection is closed before Send returns, whatever the outcome.
// There is no retry: on ErrWrite the whole file must be sent again.
func (s *Sender) Send(ctx context.Context, sourcePath, host string, port int) error {
	f, header, err := openSource(sourcePath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Header is built from the file's size before anything touches the socket
	encoded, err := codec.EncodeHeader(header)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", domain.ErrConnect, addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(encoded); err != nil {
		return fmt.Errorf("%w: header to %s: %w", domain.ErrWrite, addr, err)
	}

	buf := make([]byte, s.chunkSize)
	n, err := io.CopyBuffer(onlyWriter{conn}, io.LimitReader(onlyReader{f}, int64(header.Size)), buf)
	if err != nil {
		return fmt.Errorf("%w: payload to %s after %d bytes: %w", domain.ErrWrite, addr, n, err)
	}
	if uint64(n) != header.Size {
		// The file shrank after it was measured; the frame on the wire is short
		return fmt.Errorf("%w: %s changed during send: sent %d of %d bytes", domain.ErrWrite, sourcePath, n, header.Size)
	}

	s.logger.Info("file sent",
		ports.String(ports.KeyName, header.Name),
		ports.Bytes(header.Size),
		ports.Remote(addr),
		ports.Duration("duration", time.Since(start)),
	)
	return nil
}

// openSource opens the file and derives the frame header from it.
func openSource(path string) (*os.File, domain.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.Header{}, fmt.Errorf("%w: %w", domain.ErrFileNotFound, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, domain.Header{}, fmt.Errorf("%w: %w", domain.ErrFileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, domain.Header{}, fmt.Errorf("%w: %s is not a regular file", domain.ErrFileNotFound, path)
	}
	return f, domain.Header{
		Name: filepath.Base(path),
		Size: uint64(info.Size()),
	}, nil
}

// onlyWriter and onlyReader hide ReadFrom/WriteTo so io.CopyBuffer streams
// through the chunk buffer instead of handing the copy to sendfile.
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }

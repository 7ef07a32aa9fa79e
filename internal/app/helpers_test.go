package app

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/codec"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/pkg/log"
)

// bindLoopback binds a listener on a free loopback port.
func bindLoopback(t *testing.T, cfg ListenerConfig) *Listener {
	t.Helper()
	cfg.Host = "127.0.0.1"
	l, err := Bind(0, filepath.Join(t.TempDir(), "received"), cfg, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

type receiveResult struct {
	transfer domain.Transfer
	err      error
}

// receiveAsync runs one Receive on its own goroutine.
func receiveAsync(l *Listener, timeout time.Duration) <-chan receiveResult {
	ch := make(chan receiveResult, 1)
	go func() {
		tr, err := l.Receive(timeout)
		ch <- receiveResult{tr, err}
	}()
	return ch
}

func waitResult(t *testing.T, ch <-chan receiveResult) receiveResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for receive")
		return receiveResult{}
	}
}

func writeSource(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

// dialRaw writes raw bytes to the listener and closes the connection.
func dialRaw(t *testing.T, l *Listener, data []byte) {
	t.Helper()
	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("raw write: %v", err)
	}
}

func rawFrame(t *testing.T, name string, declared uint64, payload []byte) []byte {
	t.Helper()
	h, err := codec.EncodeHeader(domain.Header{Name: name, Size: declared})
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	return append(h, payload...)
}

// pipeDialer hands out in-memory connections; the server ends are
// delivered on conns.
type pipeDialer struct {
	conns chan net.Conn
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{conns: make(chan net.Conn, 1)}
}

func (d *pipeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	client, server := net.Pipe()
	d.conns <- server
	return client, nil
}

// recordingEmitter captures transfer events.
type recordingEmitter struct {
	mu        sync.Mutex
	completed []domain.Transfer
	failed    []error
}

func (r *recordingEmitter) OnTransferComplete(t domain.Transfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, t)
}

func (r *recordingEmitter) OnTransferError(remote string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func assertFileContent(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("%s: got %d bytes, want %d bytes (content differs)", path, len(got), len(want))
	}
}

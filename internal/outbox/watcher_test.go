package outbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/pkg/log"
)

// fakeSender records calls and fails the first failures attempts.
type fakeSender struct {
	mu       sync.Mutex
	calls    []string
	failures int
}

func (f *fakeSender) Send(ctx context.Context, sourcePath, host string, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sourcePath)
	if f.failures > 0 {
		f.failures--
		return domain.ErrConnect
	}
	return nil
}

func (f *fakeSender) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func startWatcher(t *testing.T, cfg Config, sender FileSender) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	w := New(cfg, sender, log.NewNoopLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give fsnotify time to register the directory
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancelCtx()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Run error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run did not stop after cancel")
		}
	}
}

func waitCalls(t *testing.T, f *fakeSender, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if calls := f.Calls(); len(calls) >= n {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("got %d send calls, want %d", len(f.Calls()), n)
	return nil
}

func TestWatcher_SendsNewFile(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	stop := startWatcher(t, Config{Dir: dir, Host: "127.0.0.1", Port: 5001, Debounce: 20 * time.Millisecond}, sender)
	defer stop()

	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	calls := waitCalls(t, sender, 1)
	if calls[0] != path {
		t.Errorf("sent %s, want %s", calls[0], path)
	}

	// Debounced writes of one version produce a single send
	time.Sleep(100 * time.Millisecond)
	if n := len(sender.Calls()); n != 1 {
		t.Errorf("got %d sends for one file version, want 1", n)
	}
}

func TestWatcher_IgnoresDotFiles(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	stop := startWatcher(t, Config{Dir: dir, Debounce: 10 * time.Millisecond}, sender)
	defer stop()

	os.WriteFile(filepath.Join(dir, ".partial.swp"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644)

	calls := waitCalls(t, sender, 1)
	time.Sleep(100 * time.Millisecond)
	calls = sender.Calls()
	if len(calls) != 1 || filepath.Base(calls[0]) != "visible.txt" {
		t.Errorf("sent %v, want only visible.txt", calls)
	}
}

func TestWatcher_RetriesFailedSend(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{failures: 2}
	stop := startWatcher(t, Config{
		Dir:            dir,
		Debounce:       10 * time.Millisecond,
		RetryMax:       5,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}, sender)
	defer stop()

	os.WriteFile(filepath.Join(dir, "flaky.bin"), []byte("x"), 0o644)

	calls := waitCalls(t, sender, 3)
	time.Sleep(50 * time.Millisecond)
	if n := len(sender.Calls()); n != 3 {
		t.Errorf("got %d attempts, want 3 (two failures then success); calls=%v", n, calls)
	}
}

func TestWatcher_GivesUpAfterRetryMax(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{failures: 100}
	stop := startWatcher(t, Config{
		Dir:            dir,
		Debounce:       10 * time.Millisecond,
		RetryMax:       2,
		BackoffInitial: time.Millisecond,
		BackoffMax:     time.Millisecond,
	}, sender)
	defer stop()

	os.WriteFile(filepath.Join(dir, "down.bin"), []byte("x"), 0o644)

	waitCalls(t, sender, 2)
	time.Sleep(100 * time.Millisecond)
	if n := len(sender.Calls()); n != 2 {
		t.Errorf("got %d attempts, want 2", n)
	}
}

func TestWatcher_RequiresDir(t *testing.T) {
	w := New(Config{}, &fakeSender{}, log.NewNoopLogger())
	if err := w.Run(context.Background()); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("Run error = %v, want ErrInvalidConfig", err)
	}
}

func TestWatcher_DeliversToListener(t *testing.T) {
	outboxDir := t.TempDir()
	saveDir := filepath.Join(t.TempDir(), "received")

	l, err := app.Bind(0, saveDir, app.ListenerConfig{Host: "127.0.0.1"}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer l.Close()

	q := app.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.NewReceiver(l, q, 20*time.Millisecond, log.NewNoopLogger()).Run(ctx)

	sender := app.NewSender(app.SenderConfig{}, log.NewNoopLogger())
	stop := startWatcher(t, Config{Dir: outboxDir, Host: "127.0.0.1", Port: l.Port(), Debounce: 20 * time.Millisecond}, sender)
	defer stop()

	if err := os.WriteFile(filepath.Join(outboxDir, "photo.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if path, ok := q.TryDequeue(); ok {
			if path != filepath.Join(saveDir, "photo.jpg") {
				t.Errorf("delivered %s", path)
			}
			data, _ := os.ReadFile(path)
			if string(data) != "jpeg bytes" {
				t.Errorf("content = %q", data)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("file never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

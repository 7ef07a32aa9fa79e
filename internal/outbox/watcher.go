// Package outbox sends files as they appear in a watched directory.
//
// The watcher is an application-level caller of the sender: it decides when
// a file is ready (no writes for the debounce delay) and owns the retry
// policy for failed sends. Each file still travels on its own connection.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// FileSender sends one file to a receiver. *app.Sender satisfies it.
type FileSender interface {
	Send(ctx context.Context, sourcePath, host string, port int) error
}

// Config holds configuration for the outbox watcher.
type Config struct {
	// Dir is the directory to watch. Required.
	Dir string

	// Host and Port address the receiver.
	Host string
	Port int

	// Debounce is how long a file must stay unmodified before it is sent.
	// Default: 250 milliseconds
	Debounce time.Duration

	// RetryMax is the number of send attempts per file.
	// Default: 5
	RetryMax int

	// BackoffInitial and BackoffMax bound the delay between attempts.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           domain.DefaultPort,
		Debounce:       250 * time.Millisecond,
		RetryMax:       5,
		BackoffInitial: app.DefaultBackoffInitial,
		BackoffMax:     app.DefaultBackoffMax,
	}
}

// Watcher watches a directory and sends new or rewritten files.
type Watcher struct {
	cfg    Config
	sender FileSender
	logger ports.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	sent   map[string]stamp

	ready chan string
}

// stamp identifies a file version that has already been delivered.
type stamp struct {
	size    int64
	modTime time.Time
}

// New creates a watcher. Zero config values fall back to DefaultConfig.
func New(cfg Config, sender FileSender, logger ports.Logger) *Watcher {
	def := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = def.RetryMax
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = def.BackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}
	return &Watcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		timers: make(map[string]*time.Timer),
		sent:   make(map[string]stamp),
		ready:  make(chan string, 64),
	}
}

// Run watches the directory until ctx is canceled. Sends happen one at a
// time on a single worker goroutine, in the order files settle.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Dir == "" {
		return fmt.Errorf("%w: outbox dir is required", domain.ErrInvalidConfig)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	w.logger.Info("watching outbox",
		ports.String("dir", w.cfg.Dir),
		ports.String("receiver", fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)),
	)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.sendLoop(ctx)
	}()
	defer func() {
		cancel()
		w.stopTimers()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			w.debounce(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("outbox watcher error", ports.Err(err))
		}
	}
}

// debounce (re)arms the settle timer for path.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			w.sendWithRetry(ctx, path)
		}
	}
}

// sendWithRetry sends path unless this exact version was already delivered.
func (w *Watcher) sendWithRetry(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	st := stamp{size: info.Size(), modTime: info.ModTime()}
	if prev, ok := w.sent[path]; ok && prev == st {
		return
	}

	backoff := app.NewBackoff(w.cfg.BackoffInitial, w.cfg.BackoffMax)
	for attempt := 1; attempt <= w.cfg.RetryMax; attempt++ {
		err := w.sender.Send(ctx, path, w.cfg.Host, w.cfg.Port)
		if err == nil {
			w.sent[path] = st
			if attempt > 1 {
				w.logger.Info("outbox file sent after retries",
					ports.Path(path),
					ports.Int("attempts", attempt),
				)
			}
			return
		}

		if errors.Is(err, domain.ErrFileNotFound) {
			// Removed or replaced while we waited
			w.logger.Debug("outbox file gone", ports.Path(path), ports.Err(err))
			return
		}

		w.logger.Warn("outbox send failed",
			ports.Path(path),
			ports.Int("attempt", attempt),
			ports.Int("max_attempts", w.cfg.RetryMax),
			ports.Err(err),
		)
		if attempt == w.cfg.RetryMax {
			break
		}
		if err := backoff.Wait(ctx); err != nil {
			return
		}
	}

	w.logger.Error("outbox giving up on file", ports.Path(path))
}

package app

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/pkg/log"
)

func TestRoundTrip(t *testing.T) {
	large := make([]byte, 10<<20+123)
	rand.New(rand.NewSource(1)).Read(large)

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", []byte{}},
		{"one byte", []byte{0x7f}},
		{"10MB", large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := bindLoopback(t, ListenerConfig{})
			src := writeSource(t, "payload.bin", tt.content)
			s := NewSender(SenderConfig{}, log.NewNoopLogger())

			res := receiveAsync(l, 10*time.Second)
			if err := s.Send(context.Background(), src, "127.0.0.1", l.Port()); err != nil {
				t.Fatalf("Send: %v", err)
			}

			r := waitResult(t, res)
			if r.err != nil {
				t.Fatalf("Receive: %v", r.err)
			}
			want := filepath.Join(l.SaveDir(), "payload.bin")
			if r.transfer.SavedPath != want {
				t.Errorf("SavedPath = %s, want %s", r.transfer.SavedPath, want)
			}
			if r.transfer.ByteCount != uint64(len(tt.content)) {
				t.Errorf("ByteCount = %d, want %d", r.transfer.ByteCount, len(tt.content))
			}
			if r.transfer.ID == "" || r.transfer.SourceAddress == "" {
				t.Errorf("transfer record incomplete: %+v", r.transfer)
			}
			assertFileContent(t, want, tt.content)
		})
	}
}

func TestBind_PortInUse(t *testing.T) {
	first, err := Bind(0, t.TempDir(), ListenerConfig{}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	defer first.Close()

	_, err = Bind(first.Port(), t.TempDir(), ListenerConfig{}, log.NewNoopLogger())
	if !errors.Is(err, domain.ErrBind) {
		t.Errorf("second Bind error = %v, want ErrBind", err)
	}
}

func TestBind_CreatesSaveDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "received_files")
	l, err := Bind(0, dir, ListenerConfig{Host: "127.0.0.1"}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer l.Close()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("save dir not created: %v", err)
	}
	if l.State() != StateListening {
		t.Errorf("state = %v, want Listening", l.State())
	}
}

func TestPollOnce_NoActivity(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})
	const timeout = 150 * time.Millisecond

	start := time.Now()
	path, ok := l.PollOnce(timeout)
	elapsed := time.Since(start)

	if ok || path != "" {
		t.Errorf("PollOnce = (%q, %v), want no activity", path, ok)
	}
	if elapsed < timeout-10*time.Millisecond {
		t.Errorf("PollOnce returned after %v, before the %v window", elapsed, timeout)
	}
	if elapsed > timeout+time.Second {
		t.Errorf("PollOnce blocked for %v, want about %v", elapsed, timeout)
	}
	if l.State() != StateListening {
		t.Errorf("state = %v, want Listening", l.State())
	}
}

func TestReceive_TruncatedStream(t *testing.T) {
	emitter := &recordingEmitter{}
	l := bindLoopback(t, ListenerConfig{Emitter: emitter})

	done := make(chan struct{})
	var path string
	var ok bool
	go func() {
		path, ok = l.PollOnce(10 * time.Second)
		close(done)
	}()
	dialRaw(t, l, rawFrame(t, "cut.bin", 1000, make([]byte, 10)))
	<-done

	if ok || path != "" {
		t.Fatalf("PollOnce = (%q, %v) for a truncated frame, want failure", path, ok)
	}
	if len(emitter.failed) != 1 || !errors.Is(emitter.failed[0], domain.ErrShortRead) {
		t.Fatalf("emitter errors = %v, want one ErrShortRead", emitter.failed)
	}

	// Neither the final file nor the staging file survives
	entries, _ := os.ReadDir(l.SaveDir())
	if len(entries) != 0 {
		t.Errorf("save dir has %d entries after short read, want 0", len(entries))
	}
	if l.State() != StateListening {
		t.Fatalf("state = %v after short read, want Listening", l.State())
	}

	// The listener keeps working for the next peer
	content := []byte("second attempt")
	src := writeSource(t, "cut.bin", content)
	res := receiveAsync(l, 10*time.Second)
	if err := NewSender(SenderConfig{}, log.NewNoopLogger()).Send(context.Background(), src, "127.0.0.1", l.Port()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("Receive after short read: %v", r.err)
	}
	assertFileContent(t, r.transfer.SavedPath, content)
}

func TestReceive_TruncatedHeader(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})

	res := receiveAsync(l, 10*time.Second)
	dialRaw(t, l, []byte{0, 0, 0, 9, 'a', 'b'})

	r := waitResult(t, res)
	if !errors.Is(r.err, domain.ErrShortRead) {
		t.Errorf("Receive error = %v, want ErrShortRead", r.err)
	}
}

func TestReceive_PathTraversal(t *testing.T) {
	parent := t.TempDir()
	saveDir := filepath.Join(parent, "inbox")
	l, err := Bind(0, saveDir, ListenerConfig{Host: "127.0.0.1"}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer l.Close()

	res := receiveAsync(l, 10*time.Second)
	dialRaw(t, l, rawFrame(t, "../../evil", 4, []byte("evil")))

	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("Receive: %v", r.err)
	}
	if r.transfer.SavedPath != filepath.Join(saveDir, "evil") {
		t.Errorf("SavedPath = %s, want inside %s", r.transfer.SavedPath, saveDir)
	}
	if _, err := os.Stat(filepath.Join(parent, "evil")); !os.IsNotExist(err) {
		t.Errorf("file escaped the save dir: %v", err)
	}
}

func TestReceive_InvalidName(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})

	res := receiveAsync(l, 10*time.Second)
	dialRaw(t, l, rawFrame(t, "..", 3, []byte("abc")))

	r := waitResult(t, res)
	if !errors.Is(r.err, domain.ErrInvalidName) {
		t.Errorf("Receive error = %v, want ErrInvalidName", r.err)
	}
	if l.State() != StateListening {
		t.Errorf("state = %v, want Listening", l.State())
	}
}

func TestReceive_OverwritesSameName(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})
	s := NewSender(SenderConfig{}, log.NewNoopLogger())

	var last domain.Transfer
	for _, content := range []string{"first version, longer", "second"} {
		src := writeSource(t, "doc.txt", []byte(content))
		res := receiveAsync(l, 10*time.Second)
		if err := s.Send(context.Background(), src, "127.0.0.1", l.Port()); err != nil {
			t.Fatalf("Send: %v", err)
		}
		r := waitResult(t, res)
		if r.err != nil {
			t.Fatalf("Receive: %v", r.err)
		}
		last = r.transfer
	}

	assertFileContent(t, last.SavedPath, []byte("second"))
}

func TestListener_StateDuringDrain(t *testing.T) {
	emitter := &mockEmitter{}
	l := bindLoopback(t, ListenerConfig{StateEmitter: emitter})

	res := receiveAsync(l, 10*time.Second)
	dialRaw(t, l, rawFrame(t, "s.txt", 2, []byte("ok")))
	if r := waitResult(t, res); r.err != nil {
		t.Fatalf("Receive: %v", r.err)
	}

	want := [][2]State{
		{StateIdle, StateListening},
		{StateListening, StateDraining},
		{StateDraining, StateListening},
	}
	got := emitter.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestListener_Close(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if l.State() != StateClosed {
		t.Errorf("state = %v, want Closed", l.State())
	}

	if _, err := l.Receive(time.Second); !errors.Is(err, domain.ErrListenerClosed) {
		t.Errorf("Receive error = %v, want ErrListenerClosed", err)
	}

	start := time.Now()
	if _, ok := l.PollOnce(time.Second); ok {
		t.Error("PollOnce on closed listener returned ok")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("PollOnce on closed listener waited for the timeout")
	}
}

func TestPollOnce_ReportsCompletion(t *testing.T) {
	emitter := &recordingEmitter{}
	l := bindLoopback(t, ListenerConfig{Emitter: emitter})

	done := make(chan string, 1)
	go func() {
		path, _ := l.PollOnce(10 * time.Second)
		done <- path
	}()
	dialRaw(t, l, rawFrame(t, "x.txt", 3, []byte("xyz")))

	path := <-done
	if path != filepath.Join(l.SaveDir(), "x.txt") {
		t.Errorf("PollOnce path = %q", path)
	}
	if len(emitter.completed) != 1 {
		t.Fatalf("completed events = %+v, want one", emitter.completed)
	}
	if got := emitter.completed[0]; got.Name != "x.txt" || got.SavedPath != path {
		t.Errorf("completed event = %+v, want x.txt at %s", got, path)
	}
}

func TestBind_PortInUseLeavesInFlightTransfer(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})
	payload := []byte("0123456789")

	result := receiveAsync(l, 10*time.Second)
	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(rawFrame(t, "big.bin", uint64(len(payload)), payload[:5])); err != nil {
		t.Fatalf("write first half: %v", err)
	}

	// Wait until the payload is being staged.
	deadline := time.Now().Add(10 * time.Second)
	for {
		entries, _ := os.ReadDir(l.SaveDir())
		if len(entries) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("staging file never appeared, dir has %d entries", len(entries))
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err = Bind(l.Port(), l.SaveDir(), ListenerConfig{Host: "127.0.0.1"}, log.NewNoopLogger())
	if !errors.Is(err, domain.ErrBind) {
		t.Fatalf("second Bind error = %v, want ErrBind", err)
	}

	if _, err := conn.Write(payload[5:]); err != nil {
		t.Fatalf("write second half: %v", err)
	}
	conn.Close()

	r := waitResult(t, result)
	if r.err != nil {
		t.Fatalf("Receive after failed Bind: %v", r.err)
	}
	assertFileContent(t, filepath.Join(l.SaveDir(), "big.bin"), payload)
}

func TestReceive_RejectsStagingLikeName(t *testing.T) {
	l := bindLoopback(t, ListenerConfig{})

	result := receiveAsync(l, 10*time.Second)
	dialRaw(t, l, rawFrame(t, ".dropship-report.part", 3, []byte("abc")))

	r := waitResult(t, result)
	if !errors.Is(r.err, domain.ErrInvalidName) {
		t.Fatalf("Receive error = %v, want ErrInvalidName", r.err)
	}
	entries, err := os.ReadDir(l.SaveDir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("save dir has %d entries, want none", len(entries))
	}
}

package localserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/postvote-go/internal/telemetry/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) Backend() string             { return "badger" }
func (p fakePinger) Ping(context.Context) error { return p.err }

// socketPath returns a short socket path; t.TempDir paths can exceed the
// sun_path limit.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "admin.sock")
}

// restoreLevel puts the global log level back after a test changes it.
func restoreLevel(t *testing.T) {
	level := logger.GetLevel()
	t.Cleanup(func() { logger.SetLevel(level) })
}

func TestHandler_Execute(t *testing.T) {
	restoreLevel(t)

	var reason string
	h := NewHandler(HandlerConfig{
		Storage:  fakePinger{},
		Shutdown: func(r string) { reason = r },
		Logger:   logger.Discard(),
	})

	tests := []struct {
		name string
		cmd  string
		args []string
		want string
	}{
		{"set level", "loglevel", []string{"debug"}, "ok log level debug\n"},
		{"show level", "loglevel", nil, "ok debug\n"},
		{"bad level", "loglevel", []string{"loud"}, "error: "},
		{"unknown", "reboot", nil, "error: unknown command: reboot\n"},
		{"shutdown", "shutdown", nil, "ok shutting down\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := h.Execute(context.Background(), &buf, tt.cmd, tt.args); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("reply = %q, want prefix %q", buf.String(), tt.want)
			}
		})
	}

	if reason != "local shutdown command" {
		t.Errorf("shutdown reason = %q", reason)
	}
}

func TestHandler_Status(t *testing.T) {
	tests := []struct {
		name        string
		storage     Pinger
		wantBackend string
		wantStorage string
	}{
		{"healthy", fakePinger{}, "badger", "ok"},
		{"storage down", fakePinger{err: errors.New("disk gone")}, "badger", "disk gone"},
		{"no storage", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(HandlerConfig{Storage: tt.storage, Logger: logger.Discard()})

			var buf bytes.Buffer
			if err := h.Execute(context.Background(), &buf, "status", nil); err != nil {
				t.Fatal(err)
			}

			var st Status
			if err := json.Unmarshal(buf.Bytes(), &st); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if st.Backend != tt.wantBackend || st.Storage != tt.wantStorage {
				t.Errorf("status = %+v", st)
			}
			if st.Version == "" || st.LogLevel == "" {
				t.Errorf("status missing version or level: %+v", st)
			}
		})
	}
}

func TestHandler_ShutdownUnsupported(t *testing.T) {
	h := NewHandler(HandlerConfig{Logger: logger.Discard()})

	var buf bytes.Buffer
	if err := h.Execute(context.Background(), &buf, "shutdown", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "error:") {
		t.Errorf("reply = %q", buf.String())
	}
}

func startServer(t *testing.T, h *Handler) *Server {
	t.Helper()

	srv := New(socketPath(t), h)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		if err := <-errCh; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return srv
}

func TestServer_Session(t *testing.T) {
	restoreLevel(t)

	shutdownCh := make(chan string, 1)
	srv := startServer(t, NewHandler(HandlerConfig{
		Storage:  fakePinger{},
		Shutdown: func(r string) { shutdownCh <- r },
		Logger:   logger.Discard(),
	}))

	info, err := os.Stat(srv.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket mode = %o, want 600", perm)
	}

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	send := func(line string) string {
		t.Helper()
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatal(err)
		}
		reply, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read reply to %q: %v", line, err)
		}
		return strings.TrimSpace(reply)
	}

	if got := send("STATUS"); !strings.Contains(got, `"backend":"badger"`) {
		t.Errorf("status = %q", got)
	}
	if got := send("loglevel warn"); got != "ok log level warn" {
		t.Errorf("loglevel = %q", got)
	}
	// Blank lines are ignored.
	if got := send("\nloglevel"); got != "ok warn" {
		t.Errorf("loglevel = %q", got)
	}
	if got := send("shutdown"); got != "ok shutting down" {
		t.Errorf("shutdown = %q", got)
	}

	select {
	case <-shutdownCh:
	case <-time.After(time.Second):
		t.Error("shutdown callback not called")
	}

	conn.Write([]byte("quit\n"))
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("expected the connection to close after quit")
	}
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	srv := New(socketPath(t), NewHandler(HandlerConfig{Logger: logger.Discard()}))
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}
	go srv.Serve()

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	// Round trip so the server has registered the connection.
	conn.Write([]byte("loglevel\n"))
	if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := os.Stat(srv.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket file still present: %v", err)
	}
	if _, err := net.Dial("unix", srv.Path()); err == nil {
		t.Error("expected dial to fail after shutdown")
	}
}

func TestServer_ReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	srv := New(path, NewHandler(HandlerConfig{Logger: logger.Discard()}))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	srv.Shutdown(context.Background())
}

func TestServer_ServeBeforeListen(t *testing.T) {
	srv := New(socketPath(t), NewHandler(HandlerConfig{Logger: logger.Discard()}))
	if err := srv.Serve(); err == nil {
		t.Error("expected error")
	}
}

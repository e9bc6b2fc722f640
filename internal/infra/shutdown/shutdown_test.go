package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger should default to a discard logger")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

// recorder collects hook invocations.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
		return err
	}
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func waitAsync(t *testing.T, h *Handler, ctx context.Context) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(ctx)
	}()
	return errCh
}

func receive(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
		return nil
	}
}

func TestHandler_Wait_Trigger(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("storage", rec.hook("storage", nil))
	h.OnShutdown("watcher", rec.hook("watcher", nil))
	h.OnClose("http", func() error { return rec.hook("http", nil)(context.Background()) })

	errCh := waitAsync(t, h, context.Background())
	h.Trigger("server failed")

	if err := receive(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}

	got := rec.calls()
	want := []string{"http", "watcher", "storage"}
	if len(got) != len(want) {
		t.Fatalf("hooks called = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hooks called in wrong order: %v, want %v", got, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_ContextCanceled(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("only", rec.hook("only", nil))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := waitAsync(t, h, ctx)
	cancel()

	if err := receive(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	if got := rec.calls(); len(got) != 1 {
		t.Errorf("hooks called = %v", got)
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("one", rec.hook("one", nil))

	errCh := waitAsync(t, h, context.Background())

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)

	if err := receive(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	if got := rec.calls(); len(got) != 1 || got[0] != "one" {
		t.Errorf("hooks called = %v", got)
	}
}

func TestHandler_HookErrorsAreJoined(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	rec := &recorder{}

	errA := errors.New("a failed")
	errC := errors.New("c failed")
	h.OnShutdown("a", rec.hook("a", errA))
	h.OnShutdown("b", rec.hook("b", nil))
	h.OnShutdown("c", rec.hook("c", errC))

	err := h.Run()
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Errorf("Run() = %v, want both hook errors", err)
	}
	if got := rec.calls(); len(got) != 3 {
		t.Errorf("a failing hook must not stop the others, called %v", got)
	}
}

func TestHandler_RunOnce(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("x", rec.hook("x", nil))

	h.Run()
	h.Run()

	if got := rec.calls(); len(got) != 1 {
		t.Errorf("hooks ran %d times, want 1", len(got))
	}
}

func TestHandler_HookSeesDeadline(t *testing.T) {
	h := NewHandler(time.Second, nil)
	var hasDeadline bool
	h.OnShutdown("deadline", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	h.Run()

	if !hasDeadline {
		t.Error("hook context should carry the shutdown timeout")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}

	wg.Wait()

	h.mu.Lock()
	if len(h.hooks) != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, len(h.hooks))
	}
	h.mu.Unlock()
}

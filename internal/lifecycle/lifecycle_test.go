package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeComponent struct {
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (f *fakeComponent) Start() error {
	f.started = true
	return f.startErr
}

func (f *fakeComponent) Stop() error {
	f.stopped = true
	return f.stopErr
}

// TestShutdown_StopsEveryComponent exercises P7: every registered task
// exits (Stop is called) once shutdown runs, within a bounded time.
func TestShutdown_StopsEveryComponent(t *testing.T) {
	g := New(context.Background())
	a, b := &fakeComponent{}, &fakeComponent{}
	g.Add(a)
	g.Add(b)

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !a.started || !b.started {
		t.Fatal("not every component was started")
	}

	done := make(chan error, 1)
	go func() { done <- g.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Shutdown() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Shutdown() did not return within the bound")
	}

	if !a.stopped || !b.stopped {
		t.Fatal("not every component was stopped")
	}
}

func TestShutdown_CollectsErrors(t *testing.T) {
	g := New(context.Background())
	failing := &fakeComponent{stopErr: errors.New("boom")}
	g.Add(failing)

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := g.Shutdown(); err == nil {
		t.Fatal("expected Shutdown() to surface the component's Stop error")
	}
}

func TestRun_RollsBackOnStartFailure(t *testing.T) {
	g := New(context.Background())
	ok := &fakeComponent{}
	failing := &fakeComponent{startErr: errors.New("boom")}
	g.Add(ok)
	g.Add(failing)

	if err := g.Run(); err == nil {
		t.Fatal("expected Run() to surface the start error")
	}
	if !ok.stopped {
		t.Fatal("already-started component was not stopped after a later Start failure")
	}
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// drainingServer mimics http.Server: Start returns ErrServerClosed as soon
// as Shutdown begins, while Shutdown blocks until handlers are released.
type drainingServer struct {
	closing  chan struct{}
	handlers chan struct{}
	drained  chan struct{}
	startErr error
}

func newDrainingServer() *drainingServer {
	return &drainingServer{
		closing:  make(chan struct{}),
		handlers: make(chan struct{}),
		drained:  make(chan struct{}),
	}
}

func (s *drainingServer) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	<-s.closing
	return http.ErrServerClosed
}

func (s *drainingServer) Shutdown(ctx context.Context) error {
	close(s.closing)
	defer close(s.drained)
	select {
	case <-s.handlers:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestServeUntilDoneWaitsForDrain(t *testing.T) {
	srv := newDrainingServer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv, 5*time.Second) }()
	cancel()

	<-srv.closing
	select {
	case err := <-done:
		t.Fatalf("returned while handlers were still draining: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(srv.handlers)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serveUntilDone: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntilDone did not return after drain")
	}
	select {
	case <-srv.drained:
	default:
		t.Error("returned before Shutdown finished")
	}
}

func TestServeUntilDoneReturnsStartError(t *testing.T) {
	srv := newDrainingServer()
	srv.startErr = errors.New("address already in use")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := serveUntilDone(ctx, srv, time.Second); !errors.Is(err, srv.startErr) {
		t.Errorf("expected start error, got %v", err)
	}
}

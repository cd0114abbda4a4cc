package service

import (
	"context"
	"errors"
	"testing"
)

type sessionServerStub struct {
	running  bool
	startErr error
	ports    []string
	stops    int
}

func (s *sessionServerStub) Start(port string) error {
	s.ports = append(s.ports, port)
	if s.startErr != nil {
		return s.startErr
	}
	s.running = true
	return nil
}

func (s *sessionServerStub) Stop() {
	s.stops++
	s.running = false
}

func (s *sessionServerStub) Running() bool { return s.running }

func TestSessionService_StartStop(t *testing.T) {
	t.Parallel()

	srv := &sessionServerStub{}
	svc := NewSessionService(srv, "23456")
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !svc.Running() {
		t.Fatalf("want running after Start")
	}
	if len(srv.ports) != 1 || srv.ports[0] != "23456" {
		t.Fatalf("unexpected ports: %v", srv.ports)
	}

	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if svc.Running() || srv.stops != 1 {
		t.Fatalf("want stopped once, got running=%t stops=%d", svc.Running(), srv.stops)
	}
}

func TestSessionService_Errors(t *testing.T) {
	t.Parallel()

	t.Run("start failure propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("address in use")
		svc := NewSessionService(&sessionServerStub{startErr: boom}, "23456")
		if err := svc.Start(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("want %v, got %v", boom, err)
		}
	})

	t.Run("cancelled context does nothing", func(t *testing.T) {
		t.Parallel()
		srv := &sessionServerStub{running: true}
		svc := NewSessionService(srv, "23456")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := svc.Start(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("Start: want context.Canceled, got %v", err)
		}
		if err := svc.Stop(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("Stop: want context.Canceled, got %v", err)
		}
		if len(srv.ports) != 0 || srv.stops != 0 {
			t.Fatalf("server must not be touched")
		}
	})
}

package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt ledger.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

// lateCommitServer simula una petición en curso que confirma un movimiento mientras el
// servidor se apaga.
type lateCommitServer struct {
	notifier ledger.Notifier
	stopped  chan struct{}
}

func (s *lateCommitServer) Listen(string) error {
	<-s.stopped
	return nil
}

func (s *lateCommitServer) ShutdownWithContext(ctx context.Context) error {
	time.Sleep(20 * time.Millisecond)
	s.notifier.Notify(ctx, ledger.Event{Type: ledger.EventMovementsPosted, TenantID: "t1", OccurredAt: time.Now()})
	close(s.stopped)
	return nil
}

func TestServe_PublicaCommitsDuranteElApagado(t *testing.T) {
	pub := &recordingPublisher{}
	d := events.NewDispatcher(pub, 8, zerolog.Nop())
	srv := &lateCommitServer{notifier: d, stopped: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, d, ":0", time.Second, zerolog.Nop()) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve no terminó")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 1, "el evento confirmado durante el apagado se publica")
	assert.Equal(t, "t1", pub.events[0].TenantID)
}

func TestServe_ErrorDeListenDetieneTodo(t *testing.T) {
	pub := &recordingPublisher{}
	d := events.NewDispatcher(pub, 8, zerolog.Nop())
	boom := errors.New("puerto ocupado")
	srv := &failingListen{lateCommitServer: &lateCommitServer{notifier: d, stopped: make(chan struct{})}, err: boom}

	err := serve(context.Background(), srv, d, ":0", time.Second, zerolog.Nop())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, pub.events, 1, "el apagado también drena los eventos")
}

type failingListen struct {
	*lateCommitServer
	err error
}

func (f *failingListen) Listen(string) error { return f.err }

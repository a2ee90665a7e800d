package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/docproc/app"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeDatabase struct {
	rec *recorder
	err error
}

func (d fakeDatabase) Run(context.Context) error   { d.rec.add("db.run"); return d.err }
func (d fakeDatabase) Close(context.Context) error { d.rec.add("db.close"); return nil }

type fakeWorkers struct{ rec *recorder }

func (w fakeWorkers) Run(context.Context) error { w.rec.add("workers.run"); return nil }
func (w fakeWorkers) Stop() error               { w.rec.add("workers.stop"); return nil }

type fakeServer struct{ rec *recorder }

func (s fakeServer) Enabled() bool                  { return true }
func (s fakeServer) Start() error                   { s.rec.add("admin.start"); return nil }
func (s fakeServer) Shutdown(context.Context) error { s.rec.add("admin.shutdown"); return nil }

func TestApplication_Run(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	a := app.New("dpb", fakeDatabase{rec: rec}, fakeWorkers{rec: rec}, fakeServer{rec: rec}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.list()) == 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("application did not stop")
	}

	assert.Equal(t, []string{
		"db.run", "admin.start", "workers.run",
		"workers.stop", "admin.shutdown", "db.close",
	}, rec.list())
}

func TestApplication_DatabaseFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	a := app.New("dpb", fakeDatabase{rec: rec, err: errors.New("unreachable")}, fakeWorkers{rec: rec}, nil, nil)

	err := a.Run(context.Background())
	assert.EqualError(t, err, "unreachable")
	assert.Equal(t, []string{"db.run"}, rec.list())
}

func TestApplication_Registration(t *testing.T) {
	t.Parallel()

	d, ok := inject.Lookup[*app.Application]()
	require.True(t, ok)

	assert.Equal(t, inject.Key("application"), d.Key())
	assert.Equal(t,
		[]inject.Key{"settings", "mongo_database", "workers", "admin_server", "logger"},
		d.Dependencies())
	assert.Empty(t, d.PlanErrors())
}

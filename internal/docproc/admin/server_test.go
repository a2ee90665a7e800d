package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/docproc/admin"
	"github.com/kdpb/inject/internal/docproc/settings"
)

type readiness struct{ connected bool }

func (r readiness) Connected() bool { return r.connected }

func newServer(t *testing.T, ready bool) (*admin.AdminServer, *inject.Container) {
	t.Helper()

	c := inject.NewContainer()
	t.Cleanup(func() { _ = c.Close() })
	c.Bind(admin.ReadinessKey, inject.Singleton, inject.Instance(readiness{connected: ready}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "admin_test_total", Help: "test"}))

	s := admin.NewAdminServer(settings.AdminSettings{Enabled: true, Address: "127.0.0.1:0"}, c, reg, nil)
	return s, c
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAdminServer_Routes(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, true)
	h := s.Handler()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/debug/bindings")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Bindings []inject.BindingInfo `json:"bindings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Bindings, 1)
	assert.Equal(t, admin.ReadinessKey, body.Bindings[0].Key)

	rec = get(t, h, "/debug/graph?format=dot")
	assert.Contains(t, rec.Body.String(), "digraph")

	rec = get(t, h, "/metrics")
	assert.Contains(t, rec.Body.String(), "admin_test_total")
}

func TestAdminServer_NotReady(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/readyz").Code)
}

func TestAdminServer_StartShutdown(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, true)
	require.True(t, s.Enabled())
	require.NoError(t, s.Start())
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestHandle(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	t.Cleanup(func() { _ = c.Close() })
	inject.Provide(c, "greeting", inject.Factory, func(inject.Resolver) (string, error) { return "hello", nil })

	greet := admin.Handle("greeting", func(g string, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(g))
	})
	boom := admin.Handle("greeting", func(string, http.ResponseWriter, *http.Request) {
		panic("boom")
	}, admin.WithPanicRecovery(true))

	t.Run("resolved", func(t *testing.T) {
		rec := get(t, admin.ResolverMiddleware(c)(greet), "/")
		assert.Equal(t, "hello", rec.Body.String())
	})

	t.Run("no resolver", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, get(t, greet, "/").Code)
	})

	t.Run("missing binding", func(t *testing.T) {
		h := admin.Handle("absent", func(string, http.ResponseWriter, *http.Request) {})
		rec := get(t, admin.ResolverMiddleware(c)(h), "/")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("panic recovered", func(t *testing.T) {
		rec := get(t, admin.ResolverMiddleware(c)(boom), "/")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

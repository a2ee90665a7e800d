// Package admin serves health, container introspection and metrics over
// HTTP.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/settings"
)

// Keys of the bindings the server needs that have no constructor of their
// own. The bootstrap binds them.
const (
	ContainerKey = inject.Key("container")
	GathererKey  = inject.Key("prometheus_registry")
	ReadinessKey = inject.Key("mongo_database")
)

func init() {
	inject.Register(NewAdminServer,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("Admin")),
		inject.Param(1, inject.Ref(ContainerKey)),
		inject.Param(2, inject.Ref(GathererKey)),
		inject.Param(3, inject.Ref(components.LoggerKey)),
	)
}

// Readiness is implemented by components the readiness probe asks.
type Readiness interface {
	Connected() bool
}

// AdminServer is the admin HTTP server.
type AdminServer struct {
	cfg       settings.AdminSettings
	container *inject.Container
	router    chi.Router
	logger    *logging.Logger

	server   *http.Server
	listener net.Listener
}

func NewAdminServer(cfg settings.AdminSettings, c *inject.Container, gatherer prometheus.Gatherer, logger *logging.Logger) *AdminServer {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &AdminServer{cfg: cfg, container: c, logger: logger.Named("AdminServer")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(ResolverMiddleware(c))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", Handle(ReadinessKey, serveReady, WithPanicRecovery(true), WithHandlerLogger(s.logger.Logger)))

	r.Route("/debug", func(r chi.Router) {
		r.Get("/bindings", s.bindings)
		r.Get("/graph", s.graph)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

// Handler returns the router.
func (s *AdminServer) Handler() http.Handler {
	return s.router
}

// Enabled reports whether the server should be started.
func (s *AdminServer) Enabled() bool {
	return s.cfg.Enabled
}

// Start listens on the configured address and serves in the background.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}

	s.listener = ln
	s.server = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("admin server listening", zap.String("address", ln.Addr().String()))
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *AdminServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops the server gracefully.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) bindings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"container": s.container.ID(),
		"tags":      s.container.Tags(),
		"bindings":  s.container.Bindings(),
	})
}

func (s *AdminServer) graph(w http.ResponseWriter, r *http.Request) {
	g := s.container.Graph()

	var err error
	if r.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		err = g.WriteDOT(w)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = g.WriteText(w)
	}
	if err != nil {
		s.logger.Warn("write graph", zap.Error(err))
	}
}

func serveReady(ready Readiness, w http.ResponseWriter, _ *http.Request) {
	if !ready.Connected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

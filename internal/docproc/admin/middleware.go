package admin

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
)

// ErrNoResolver is returned when a request context carries no resolver.
var ErrNoResolver = errors.New("admin: no resolver in request context")

// ResolverMiddleware attaches r to every request context, where Handle and
// inject.FromContext find it.
func ResolverMiddleware(r inject.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(inject.NewContext(req.Context(), r)))
		})
	}
}

// HandlerConfig configures Handle.
type HandlerConfig struct {
	// PanicRecovery turns handler panics into 500 responses.
	PanicRecovery bool
	// Logger receives resolution failures and recovered panics.
	Logger *zap.Logger
}

// HandlerOption configures Handle.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithHandlerLogger sets the logger for handler failures.
func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(c *HandlerConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Handle adapts method to an http.HandlerFunc. The receiver is resolved
// under key from the resolver attached by ResolverMiddleware on every
// request, so Factory bindings yield a fresh receiver per request.
//
//	r.Get("/readyz", admin.Handle[admin.Readiness]("mongo_database", serveReady))
func Handle[T any](key inject.Key, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := &HandlerConfig{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.Logger.Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
		}

		res, ok := inject.FromContext(r.Context())
		if !ok {
			cfg.Logger.Error("resolve handler receiver", zap.Error(ErrNoResolver))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		receiver, err := inject.Resolve[T](res, key)
		if err != nil {
			cfg.Logger.Error("resolve handler receiver", zap.Stringer("key", key), zap.Error(err))
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		method(receiver, w, r)
	}
}

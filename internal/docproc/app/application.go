// Package app is the documentation processing application root.
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/admin"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/database"
	"github.com/kdpb/inject/internal/docproc/workers"
)

// ShutdownTimeout bounds the graceful shutdown.
const ShutdownTimeout = 10 * time.Second

func init() {
	inject.Register(NewApplication,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("App", "AppName")),
		inject.Param(4, inject.Ref(components.LoggerKey)),
	)
}

// Database is the lifecycle of the document database.
type Database interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}

// Workers is the lifecycle of the background workers.
type Workers interface {
	Run(ctx context.Context) error
	Stop() error
}

// Server is the lifecycle of the admin server.
type Server interface {
	Enabled() bool
	Start() error
	Shutdown(ctx context.Context) error
}

// Application connects the database, starts the workers and the admin
// server, and tears them down when its context ends.
type Application struct {
	name     string
	database Database
	workers  Workers
	admin    Server
	logger   *logging.Logger
}

func NewApplication(
	name string,
	db *database.MongoDatabase,
	w *workers.Workers,
	server *admin.AdminServer,
	logger *logging.Logger,
) *Application {
	var s Server
	if server != nil {
		s = server
	}
	return New(name, db, w, s, logger)
}

// New builds an Application from its lifecycle parts.
func New(name string, db Database, w Workers, server Server, logger *logging.Logger) *Application {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Application{
		name:     name,
		database: db,
		workers:  w,
		admin:    server,
		logger:   logger.Named("Application"),
	}
}

// Run blocks until ctx is done, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("starting", zap.String("app", a.name))

	if err := a.database.Run(ctx); err != nil {
		return err
	}

	if a.admin != nil && a.admin.Enabled() {
		if err := a.admin.Start(); err != nil {
			return errors.Join(err, a.shutdown())
		}
	}

	if err := a.workers.Run(ctx); err != nil {
		return errors.Join(err, a.shutdown())
	}

	<-ctx.Done()
	return a.shutdown()
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down", zap.String("app", a.name))

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	errs = append(errs, a.workers.Stop())
	if a.admin != nil {
		errs = append(errs, a.admin.Shutdown(ctx))
	}
	errs = append(errs, a.database.Close(ctx))

	return errors.Join(errs...)
}

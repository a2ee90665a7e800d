// Package workers holds the background workers of the documentation
// processing backend.
package workers

import (
	"context"
	"errors"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/common/worker"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/pipeline"
	"github.com/kdpb/inject/internal/docproc/settings"
)

func init() {
	inject.Register(NewDocumentationProcessingWorker,
		inject.Tags(docproc.Tag),
		inject.Param(2, inject.Ref(components.LoggerKey)),
	)
	inject.Register(NewWorkers, inject.Tags(docproc.Tag))
}

// DocumentationProcessingWorker runs the documentation pipeline on the
// configured interval.
type DocumentationProcessingWorker struct {
	*worker.Worker
}

func NewDocumentationProcessingWorker(p *pipeline.DocumentationPipeline, s *settings.Settings, logger *logging.Logger) *DocumentationProcessingWorker {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Named("DocumentationProcessingWorker")

	task := worker.TaskFunc(func(ctx context.Context) error {
		logger.Info("starting documentation processing pipeline")
		if err := p.Work(ctx); err != nil {
			return err
		}
		logger.Info("documentation processing pipeline completed")
		return nil
	})

	return &DocumentationProcessingWorker{
		Worker: worker.New("documentation_processing", task, s.App.WorkerInterval,
			worker.WithRestartDelay(s.App.RestartDelay),
			worker.WithLogger(logger.Logger),
		),
	}
}

// Runnable is a worker the Workers group can start and stop.
type Runnable interface {
	Run(ctx context.Context) error
	Stop() error
	IsRunning() bool
}

// Workers starts and stops every background worker together.
type Workers struct {
	list []Runnable
}

func NewWorkers(documentation *DocumentationProcessingWorker) *Workers {
	return NewGroup(documentation)
}

// NewGroup groups arbitrary workers.
func NewGroup(list ...Runnable) *Workers {
	return &Workers{list: list}
}

// Len returns the number of workers.
func (w *Workers) Len() int {
	return len(w.list)
}

// Run starts every worker.
func (w *Workers) Run(ctx context.Context) error {
	for _, r := range w.list {
		if err := r.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every running worker.
func (w *Workers) Stop() error {
	var errs []error
	for _, r := range w.list {
		if r.IsRunning() {
			errs = append(errs, r.Stop())
		}
	}
	return errors.Join(errs...)
}

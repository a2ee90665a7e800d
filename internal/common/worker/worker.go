// Package worker runs a task on a fixed interval until stopped.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRestartDelay is how long a worker waits after a failed run.
const DefaultRestartDelay = time.Minute

var (
	// ErrAlreadyRunning is returned by Run on a running worker.
	ErrAlreadyRunning = errors.New("worker already running")
	// ErrAlreadyStopped is returned by Stop on a stopped worker.
	ErrAlreadyStopped = errors.New("worker already stopped")
)

// Task is one unit of periodic work.
type Task interface {
	Work(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Work(ctx context.Context) error {
	return f(ctx)
}

// Option configures a Worker.
type Option func(*Worker)

// WithRestartDelay sets the delay after a failed run.
func WithRestartDelay(d time.Duration) Option {
	return func(w *Worker) {
		w.restartDelay = d
	}
}

// WithLogger sets the worker's logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Worker calls its task, waits for the interval, and repeats. A failing task
// is retried after the restart delay instead of the interval.
type Worker struct {
	name         string
	task         Task
	interval     time.Duration
	restartDelay time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped worker.
func New(name string, task Task, interval time.Duration, opts ...Option) *Worker {
	w := &Worker{
		name:         name,
		task:         task,
		interval:     interval,
		restartDelay: DefaultRestartDelay,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the worker's name.
func (w *Worker) Name() string {
	return w.name
}

// Run starts the loop in a new goroutine. The loop ends when ctx is done or
// Stop is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("%s: %w", w.name, ErrAlreadyRunning)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx, w.done)

	w.logger.Info("worker started", zap.String("worker", w.name))
	return nil
}

// Stop cancels the loop and waits for the current run to return.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("%s: %w", w.name, ErrAlreadyStopped)
	}
	w.running = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done

	w.logger.Info("worker stopped", zap.String("worker", w.name))
	return nil
}

// IsRunning reports whether the loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		w.logger.Debug("perform work", zap.String("worker", w.name))

		wait := w.interval
		if err := w.perform(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("work failed, restarting",
				zap.String("worker", w.name),
				zap.Duration("restart_delay", w.restartDelay),
				zap.Error(err),
			)
			wait = w.restartDelay
		} else {
			w.logger.Debug("work performed", zap.String("worker", w.name), zap.Duration("next_in", wait))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// perform runs the task once, turning a panic into an error.
func (w *Worker) perform(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.task.Work(ctx)
}

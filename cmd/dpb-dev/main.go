//go:build !windows

// Command dpb-dev runs cmd/dpb and restarts it whenever a .go file below the
// working directory changes.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kdpb/inject/internal/common/logging"
)

const debounceDelay = 500 * time.Millisecond

var skipDirs = map[string]bool{".git": true, "_examples": true, "vendor": true, "node_modules": true}

func main() {
	root := flag.String("root", ".", "directory to watch")
	target := flag.String("target", "./cmd/dpb", "package to run")
	flag.Parse()

	logger, err := logging.New(logging.Config{AppName: "dpb-dev", Level: "INFO", DevMode: true})
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, *root, *target, logger); err != nil {
		logger.Error("watcher stopped", zap.Error(err))
		os.Exit(1)
	}
}

func watch(ctx context.Context, root, target string, logger *logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirs(w, root, logger); err != nil {
		return err
	}

	r := &runner{target: target, logger: logger}
	r.start()
	defer r.stop()

	restart := make(chan struct{}, 1)
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirs(w, event.Name, logger)
				}
			}
			if !strings.HasSuffix(event.Name, ".go") || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			logger.Debug("source changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case restart <- struct{}{}:
				default:
				}
			})

		case <-restart:
			logger.Info("restarting", zap.String("target", target))
			r.stop()
			r.start()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", zap.Error(err))
		}
	}
}

func addDirs(w *fsnotify.Watcher, root string, logger *logging.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

type runner struct {
	target string
	logger *logging.Logger
	cmd    *exec.Cmd
	done   chan struct{}
}

func (r *runner) start() {
	cmd := exec.Command("go", "run", r.target)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		r.logger.Error("failed to start", zap.String("target", r.target), zap.Error(err))
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var exit *exec.ExitError
		if err := cmd.Wait(); err != nil && !errors.As(err, &exit) {
			r.logger.Warn("wait failed", zap.Error(err))
		}
	}()

	r.cmd, r.done = cmd, done
}

// stop interrupts the process group so the binary built by go run exits
// too, and kills it if it outlives the grace period.
func (r *runner) stop() {
	if r.cmd == nil {
		return
	}
	pgid := -r.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGINT)

	select {
	case <-r.done:
	case <-time.After(10 * time.Second):
		r.logger.Warn("process did not exit, killing", zap.Int("pid", r.cmd.Process.Pid))
		_ = syscall.Kill(pgid, syscall.SIGKILL)
		<-r.done
	}
	r.cmd, r.done = nil, nil
}

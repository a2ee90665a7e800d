// Command dpb runs the documentation processing application.
//
// Settings come from DPB_CONFIG_FILE, .env and DPB_* variables. Every
// component under internal/docproc carrying the DOCUMENTATION_PROCESSING tag
// is discovered into one container and the application runs until SIGINT or
// SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc/app"
	"github.com/kdpb/inject/internal/docproc/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dpb:", err)
		os.Exit(1)
	}
}

func run() error {
	s, err := settings.NewSettings()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		AppName: s.App.AppName,
		Level:   string(s.App.LogLevel),
		DevMode: s.App.DevMode,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c, _, err := app.Bootstrap(s, reg, logger)
	if err != nil {
		return err
	}

	application, err := inject.Resolve[*app.Application](c, "application")
	if err != nil {
		return errors.Join(err, c.Close())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	return errors.Join(runErr, c.Close())
}

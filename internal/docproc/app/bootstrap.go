package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/admin"
	"github.com/kdpb/inject/internal/docproc/settings"
	"github.com/kdpb/inject/metrics"

	_ "github.com/kdpb/inject/internal/docproc/registry"
)

// SettingsKey is the binding holding the loaded settings.
const SettingsKey inject.Key = "settings"

// Bootstrap builds the application container: s, the container itself and
// reg are bound first, then every tagged component under docproc.Root is
// discovered and the graph is validated. The caller owns the returned
// container and must Close it.
func Bootstrap(s *settings.Settings, reg *prometheus.Registry, logger *logging.Logger) (*inject.Container, inject.Report, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	c := inject.NewContainer(
		inject.WithTags(docproc.Tag),
		inject.WithLogger(logger.Named("inject").Logger),
		inject.WithObserver(metrics.New(reg)),
	)

	c.Bind(SettingsKey, inject.Singleton, inject.Instance(s))
	c.Bind(admin.ContainerKey, inject.Singleton, inject.Instance(c))
	c.Bind(admin.GathererKey, inject.Singleton, inject.Instance(reg))

	report, err := inject.Discover(docproc.Root, c)
	if err == nil && len(report.PlanErrors) > 0 {
		err = errors.Join(report.PlanErrors...)
	}
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		return nil, report, errors.Join(err, c.Close())
	}

	logger.Info("discovered components",
		zap.Int("bound", len(report.Bound)),
		zap.Int("skipped_tags", len(report.SkippedTags)),
		zap.Stringers("collisions", report.Collisions))

	return c, report, nil
}

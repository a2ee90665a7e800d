// Package components registers the shared documentation processing
// components that live outside the domain packages.
package components

import (
	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/settings"
)

// LoggerKey is the key components resolve their logger from.
const LoggerKey inject.Key = "logger"

func init() {
	inject.Register(NewLogger,
		inject.Name(LoggerKey),
		inject.Kind(inject.Factory),
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("App")),
	)
}

// NewLogger builds a logger from the application settings. It is bound as a
// factory, so each component receives its own instance to name.
func NewLogger(app settings.AppSettings) (*logging.Logger, error) {
	return logging.New(logging.Config{
		AppName: app.AppName,
		Level:   string(app.LogLevel),
		DevMode: app.DevMode,
	})
}

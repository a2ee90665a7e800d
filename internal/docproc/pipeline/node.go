// Package pipeline implements the documentation processing pipeline: load
// the enabled providers, select unprocessed versions, and process them with
// kdctl.
package pipeline

import (
	"context"

	"github.com/kdpb/inject/internal/docproc/model"
)

// Node is one pipeline step.
type Node interface {
	Execute(ctx context.Context, state *model.PipelineState) (*model.PipelineState, error)
}

// ProviderSettingsSource lists the providers to process.
type ProviderSettingsSource interface {
	EnabledProviders(ctx context.Context) ([]model.ProviderSettings, error)
}

// VersionStore records processed provider versions.
type VersionStore interface {
	VersionProcessed(ctx context.Context, provider model.ProviderConfig, version string) (bool, error)
	InsertProviderVersion(ctx context.Context, doc model.ProviderVersionDocument) error
}

// Registry reads provider metadata and documents.
type Registry interface {
	LatestVersion(ctx context.Context, provider model.ProviderConfig) (model.ProviderVersion, bool, error)
	ProviderDocs(ctx context.Context, providerVersionID string) ([]string, error)
	Document(ctx context.Context, id string) (string, error)
}

// CommandRunner runs an external command.
type CommandRunner interface {
	Run(ctx context.Context, args ...string) error
}

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/model"
)

func init() {
	inject.Register(NewProviderVersionSelectionNode,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("registry_client")),
		inject.Param(1, inject.Ref("mongo_database")),
		inject.Param(2, inject.Ref(components.LoggerKey)),
	)
}

// ProviderVersionSelectionNode picks the latest version of each provider
// unless it was already processed.
type ProviderVersionSelectionNode struct {
	registry Registry
	store    VersionStore
	logger   *logging.Logger
}

func NewProviderVersionSelectionNode(registry Registry, store VersionStore, logger *logging.Logger) *ProviderVersionSelectionNode {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProviderVersionSelectionNode{
		registry: registry,
		store:    store,
		logger:   logger.Named("ProviderVersionSelectionNode"),
	}
}

func (n *ProviderVersionSelectionNode) Execute(ctx context.Context, state *model.PipelineState) (*model.PipelineState, error) {
	n.logger.Info("selecting provider versions")

	var selected []model.ProviderVersion
	for _, provider := range state.Providers {
		version, ok, err := n.registry.LatestVersion(ctx, provider)
		if err != nil {
			return state, fmt.Errorf("select %s: %w", provider.Slug(), err)
		}
		if !ok {
			n.logger.Warn("no versions found", zap.String("provider", provider.Slug()))
			continue
		}

		done, err := n.store.VersionProcessed(ctx, provider, version.Version)
		if err != nil {
			return state, fmt.Errorf("select %s: %w", provider.Slug(), err)
		}
		if done {
			n.logger.Info("provider already processed",
				zap.String("provider", provider.Slug()),
				zap.String("version", version.Version),
			)
			continue
		}

		selected = append(selected, version)
	}

	state.VersionsToProcess = selected
	return state, nil
}

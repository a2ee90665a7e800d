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
	inject.Register(NewLoadProviderSettingsNode,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("mongo_database")),
		inject.Param(1, inject.Ref(components.LoggerKey)),
	)
}

// LoadProviderSettingsNode fills the state with the enabled providers.
type LoadProviderSettingsNode struct {
	source ProviderSettingsSource
	logger *logging.Logger
}

func NewLoadProviderSettingsNode(source ProviderSettingsSource, logger *logging.Logger) *LoadProviderSettingsNode {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LoadProviderSettingsNode{source: source, logger: logger.Named("LoadProviderSettingsNode")}
}

func (n *LoadProviderSettingsNode) Execute(ctx context.Context, state *model.PipelineState) (*model.PipelineState, error) {
	n.logger.Info("loading provider settings")

	enabled, err := n.source.EnabledProviders(ctx)
	if err != nil {
		return state, fmt.Errorf("load provider settings: %w", err)
	}

	state.Providers = state.Providers[:0]
	for _, p := range enabled {
		state.Providers = append(state.Providers, model.ProviderConfig{Namespace: p.Namespace, Name: p.Name})
	}

	n.logger.Debug("providers loaded", zap.Int("count", len(state.Providers)))
	return state, nil
}

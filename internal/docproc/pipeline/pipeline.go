package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/model"
	"github.com/kdpb/inject/internal/docproc/settings"
)

func init() {
	inject.Register(NewDocumentationPipeline,
		inject.Tags(docproc.Tag),
		inject.Param(4, inject.Ref(components.LoggerKey)),
	)
}

// DocumentationPipeline runs its nodes in order on a fresh state.
type DocumentationPipeline struct {
	nodes         []Node
	workspaceRoot string
	logger        *logging.Logger
}

func NewDocumentationPipeline(
	load *LoadProviderSettingsNode,
	selection *ProviderVersionSelectionNode,
	process *ProcessProviderVersionNode,
	s *settings.Settings,
	logger *logging.Logger,
) *DocumentationPipeline {
	return NewPipeline(s.App.WorkspaceRoot, logger, load, selection, process)
}

// NewPipeline builds a pipeline from arbitrary nodes.
func NewPipeline(workspaceRoot string, logger *logging.Logger, nodes ...Node) *DocumentationPipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DocumentationPipeline{
		nodes:         nodes,
		workspaceRoot: workspaceRoot,
		logger:        logger.Named("DocumentationPipeline"),
	}
}

// Execute runs one pipeline pass and returns its final state.
func (p *DocumentationPipeline) Execute(ctx context.Context) (*model.PipelineState, error) {
	state := model.NewPipelineState(p.workspaceRoot)
	log := p.logger.With(zap.Stringer("run_id", state.RunID))

	for _, node := range p.nodes {
		var err error
		if state, err = node.Execute(ctx, state); err != nil {
			log.Error("documentation pipeline failed", zap.Error(err))
			return state, err
		}
	}

	log.Info("documentation pipeline finished", zap.Int("versions", len(state.VersionsToProcess)))
	return state, nil
}

// Work runs the pipeline as a worker task.
func (p *DocumentationPipeline) Work(ctx context.Context) error {
	_, err := p.Execute(ctx)
	return err
}

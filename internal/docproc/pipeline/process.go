package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/model"
	"github.com/kdpb/inject/internal/docproc/settings"
)

func init() {
	inject.Register(NewProcessProviderVersionNode, inject.Tags(docproc.Tag))
}

// ProcessParams are the dependencies of ProcessProviderVersionNode.
type ProcessParams struct {
	inject.In

	Settings *settings.Settings
	Registry Registry        `inject:"registry_client"`
	Store    VersionStore    `inject:"mongo_database"`
	Kdctl    CommandRunner   `inject:"kdctl"`
	Logger   *logging.Logger `inject:"logger"`
}

// ProcessProviderVersionNode downloads the documentation of each selected
// version, runs kdctl prepare, vectorize and upload on it, and records the
// version as processed.
type ProcessProviderVersionNode struct {
	settings *settings.Settings
	registry Registry
	store    VersionStore
	kdctl    CommandRunner
	logger   *logging.Logger
}

func NewProcessProviderVersionNode(p ProcessParams) *ProcessProviderVersionNode {
	logger := p.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProcessProviderVersionNode{
		settings: p.Settings,
		registry: p.Registry,
		store:    p.Store,
		kdctl:    p.Kdctl,
		logger:   logger.Named("ProcessProviderVersionNode"),
	}
}

// workspace holds the per-run directories.
type workspace struct {
	raw, combined, prepared, vectorized string
}

func newWorkspace(root string) (workspace, error) {
	ws := workspace{
		raw:        filepath.Join(root, "raw_documents"),
		combined:   filepath.Join(root, "raw_documents_combined"),
		prepared:   filepath.Join(root, "prepared"),
		vectorized: filepath.Join(root, "vectorized"),
	}
	for _, dir := range []string{ws.raw, ws.combined, ws.prepared, ws.vectorized} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return workspace{}, err
		}
	}
	return ws, nil
}

func (n *ProcessProviderVersionNode) Execute(ctx context.Context, state *model.PipelineState) (*model.PipelineState, error) {
	n.logger.Info("processing versions")

	if len(state.VersionsToProcess) == 0 {
		n.logger.Info("no provider versions selected for processing")
		return state, nil
	}

	ws, err := newWorkspace(filepath.Join(state.WorkspaceRoot, state.RunID.String()))
	if err != nil {
		return state, fmt.Errorf("process: workspace: %w", err)
	}

	for _, version := range state.VersionsToProcess {
		if err := n.process(ctx, ws, version, state.RunID.String()); err != nil {
			return state, fmt.Errorf("process %s %s: %w", version.Provider.Slug(), version.Version, err)
		}
	}

	return state, nil
}

func (n *ProcessProviderVersionNode) process(ctx context.Context, ws workspace, version model.ProviderVersion, runID string) error {
	ids, err := n.registry.ProviderDocs(ctx, version.ProviderVersionID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		n.logger.Warn("no documentation entries",
			zap.String("provider", version.Provider.Slug()),
			zap.String("version", version.Version),
		)
		return nil
	}

	downloaded, err := n.download(ctx, ids, ws.raw)
	if err != nil {
		return err
	}

	combined, err := combine(version, downloaded, ws.raw, ws.combined)
	if err != nil {
		return err
	}

	prepared := filepath.Join(ws.prepared, version.Label())
	vectorized := filepath.Join(ws.vectorized, version.Label())
	for _, dir := range []string{prepared, vectorized} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	metadata, err := json.Marshal(map[string]string{
		"provider": version.Provider.Slug(),
		"version":  version.Version,
		"run_id":   runID,
	})
	if err != nil {
		return err
	}

	app := n.settings.App
	if err := n.kdctl.Run(ctx, prepareArgs(app, combined, prepared, string(metadata))...); err != nil {
		return err
	}
	if err := n.kdctl.Run(ctx, vectorizeArgs(app, prepared, vectorized)...); err != nil {
		return err
	}
	if err := n.kdctl.Run(ctx, uploadArgs(n.settings, vectorized)...); err != nil {
		return err
	}

	return n.store.InsertProviderVersion(ctx, model.ProviderVersionDocument{
		Namespace:         version.Provider.Namespace,
		Name:              version.Provider.Name,
		Version:           version.Version,
		ProviderVersionID: version.ProviderVersionID,
		PipelineRunID:     runID,
		Documents:         downloaded,
	})
}

func (n *ProcessProviderVersionNode) download(ctx context.Context, ids []string, dir string) ([]string, error) {
	downloaded := make([]string, 0, len(ids))
	for _, id := range ids {
		content, err := n.registry.Document(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, id+".md"), []byte(content), 0o644); err != nil {
			return nil, err
		}
		downloaded = append(downloaded, id)
	}
	return downloaded, nil
}

// combine concatenates the downloaded documents into one markdown file.
func combine(version model.ProviderVersion, ids []string, src, dst string) (string, error) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		data, err := os.ReadFile(filepath.Join(src, id+".md"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, string(data))
	}

	path := filepath.Join(dst, version.Label()+".md")
	if err := os.WriteFile(path, []byte(strings.Join(parts, "\n\n")), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

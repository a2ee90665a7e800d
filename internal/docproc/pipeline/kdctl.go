package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/settings"
)

func init() {
	inject.Register(NewKdctl,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("App", "KdctlPath")),
		inject.Param(1, inject.Ref(components.LoggerKey)),
	)
}

// Kdctl runs the kdctl tool.
type Kdctl struct {
	path   string
	logger *logging.Logger
}

// NewKdctl creates a runner for the kdctl binary at path.
func NewKdctl(path string, logger *logging.Logger) *Kdctl {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Kdctl{path: path, logger: logger.Named("Kdctl")}
}

// Run executes kdctl with args. Output is logged; a non-zero exit is an error.
func (k *Kdctl) Run(ctx context.Context, args ...string) error {
	k.logger.Debug("executing", zap.String("command", k.path+" "+strings.Join(redact(args), " ")))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, k.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stdout.Len() > 0 {
		k.logger.Debug(stdout.String())
	}
	if stderr.Len() > 0 {
		k.logger.Error(stderr.String())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("kdctl %s failed with code %d", firstArg(args), exitErr.ExitCode())
		}
		return fmt.Errorf("kdctl %s: %w", firstArg(args), err)
	}
	return nil
}

// redact hides the values of secret flags.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		switch out[i] {
		case "--api-key", "--password":
			out[i+1] = "***"
		}
	}
	return out
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// prepareArgs builds the documents-prepare command line.
func prepareArgs(app settings.AppSettings, input, output, metadata string) []string {
	args := []string{
		"documents-prepare",
		"--api-key", app.OpenAIAPIKey,
		"--input", input,
		"--output", output,
		"--metadata", metadata,
	}
	if app.LLMBaseURL != "" {
		args = append(args, "--base-url", app.LLMBaseURL)
	}
	return args
}

// vectorizeArgs builds the documents-vectorize command line.
func vectorizeArgs(app settings.AppSettings, input, output string) []string {
	args := []string{
		"documents-vectorize",
		"--api-key", app.OpenAIAPIKey,
		"--model", app.ModelName,
		"--input", input,
		"--output", output,
	}
	if app.LLMBaseURL != "" {
		args = append(args, "--base-url", app.LLMBaseURL)
	}
	return args
}

// uploadArgs builds the documents-upload command line.
func uploadArgs(s *settings.Settings, input string) []string {
	args := []string{
		"documents-upload",
		"--host", s.DBQdrant.Address,
		"--port", fmt.Sprint(s.DBQdrant.Port),
		"--password", s.DBQdrant.Password,
		"--collection", s.App.VectorDatabaseCollection,
		"--input", input,
	}
	if s.DBQdrant.Secured {
		args = append(args, "--secured")
	}
	return args
}

// Package command runs an external program as the model adapter. The command line
// may reference {input}, {type} and {output}; the program either writes its answer
// to {output} or prints it on stdout.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/llm"
)

type Adapter struct {
	name   string
	args   []string
	runner Runner
	logger *slog.Logger
}

// New parses a command line such as "python3 run_model.py --in {input} --out {output}".
func New(commandLine string, runner Runner, logger *slog.Logger) (*Adapter, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, common.NewAppError(common.CodeConfig, "model command is empty", common.ErrInvalidInput)
	}
	if runner == nil {
		runner = ExecRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{name: fields[0], args: fields[1:], runner: runner, logger: logger}, nil
}

func (a *Adapter) Invoke(ctx context.Context, documentPath string, docType constants.DocumentType) (llm.Invocation, error) {
	output := filepath.Join(filepath.Dir(documentPath), constants.ModelOutputFile)
	repl := strings.NewReplacer("{input}", documentPath, "{type}", string(docType), "{output}", output)
	args := make([]string, len(a.args))
	for i, arg := range a.args {
		args[i] = repl.Replace(arg)
	}

	log := common.LoggerFromContext(ctx, a.logger)
	stdout, stderr, runErr := a.runner.Run(ctx, a.name, log, args...)

	inv := llm.Invocation{}
	fileOut, readErr := os.ReadFile(output)
	switch {
	case readErr == nil:
		inv.ArtifactPath = output
		inv.RawText = string(fileOut)
	case len(stdout) > 0:
		if err := os.WriteFile(output, stdout, 0o644); err == nil {
			inv.ArtifactPath = output
		}
		inv.RawText = string(stdout)
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return inv, common.NewTimeoutError("model command timed out", runErr)
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = runErr.Error()
		}
		log.Warn("llm.command.failed", "cmd", a.name, "doc_type", docType, "partial_bytes", len(inv.RawText))
		return inv, common.NewAdapterError(fmt.Sprintf("model command failed: %s", truncate(msg, 512)), runErr)
	}
	if strings.TrimSpace(inv.RawText) == "" {
		return inv, common.NewAdapterError("model command produced no output", nil)
	}
	return inv, nil
}

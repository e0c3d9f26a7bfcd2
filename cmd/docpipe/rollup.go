package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/statement-insights/internal/aggregate"
	"github.com/joseph-ayodele/statement-insights/internal/app"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/llm"
	"github.com/joseph-ayodele/statement-insights/internal/workspace"
)

type rollupOutput struct {
	Income    entity.CategoryAmounts `json:"income"`
	Outgoings entity.CategoryAmounts `json:"outgoings"`
	Totals    entity.Totals          `json:"totals"`
	Skipped   []string               `json:"skipped,omitempty"`
}

// runRollup totals transaction CSVs by category. Several files are merged into one
// roll-up; a PDF is first sent to Gemini for its transaction list.
func runRollup(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("rollup takes at least one file")
	}

	var txs []aggregate.Transaction
	for _, path := range args {
		var csvText string
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			text, err := transactionsFromPDF(ctx, cfg, logger, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			csvText = text
		} else {
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			csvText = string(b)
		}

		parsed, err := aggregate.ParseTransactions(strings.NewReader(csvText))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Info("rollup.file.parsed", "path", path, "transactions", len(parsed))
		txs = append(txs, parsed...)
	}

	r := aggregate.RollupTransactions(txs)
	for _, s := range r.Skipped {
		logger.Warn("rollup.row.skipped", "detail", s)
	}
	logger.Info("rollup.ok", "transactions", len(txs), "skipped", len(r.Skipped))
	return writeJSON(os.Stdout, rollupOutput{
		Income:    r.Income,
		Outgoings: r.Outgoings,
		Totals:    r.Totals(),
		Skipped:   r.Skipped,
	})
}

func transactionsFromPDF(ctx context.Context, cfg *common.Config, logger *slog.Logger, path string) (string, error) {
	if cfg.Model.Provider != "gemini" {
		return "", common.NewAppError(common.CodeConfig, "rollup of a PDF needs MODEL_PROVIDER=gemini", common.ErrInvalidInput)
	}
	_, gc, err := app.BuildAdapters(cfg.Model, logger)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	wm, err := workspace.NewManager(cfg.Pipeline.WorkDir, cfg.Pipeline.ArtifactDir, logger)
	if err != nil {
		return "", err
	}
	id, err := workspace.NewJobID()
	if err != nil {
		return "", err
	}
	ws, err := wm.Allocate(id)
	if err != nil {
		return "", err
	}
	defer func() { _ = ws.Release() }()
	input, err := ws.Save("input.pdf", data)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.ModelTimeout)
	defer cancel()
	inv, err := gc.ExtractTransactions(callCtx, input)
	if err != nil {
		return "", err
	}
	if _, err := wm.PersistArtifact(id, "transactions.csv", []byte(inv.RawText)); err != nil {
		logger.Warn("rollup.artifact.persist_failed", "error", err)
	}
	return llm.Sanitize(inv.RawText), nil
}

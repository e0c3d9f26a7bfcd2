package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/statement-insights/internal/app"
	"github.com/joseph-ayodele/statement-insights/internal/common"
)

const usage = `usage:
  docpipe process [-type statement|driving_license|passport] [-xlsx out.xlsx] <file|dir>
  docpipe rollup <transactions.csv|statement.pdf>...
  docpipe jobs [-limit n]
`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError(usage)
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := cfg.Log.NewLoggerTo(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "process":
		err = runProcess(ctx, cfg, logger, args)
	case "rollup":
		err = runRollup(ctx, cfg, logger, args)
	case "jobs":
		err = runJobs(ctx, cfg, logger, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		printError("unknown command %q\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func runProcess(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	docType := fs.String("type", "", "declared document type (required for passports)")
	xlsxOut := fs.String("xlsx", "", "write statement summaries to this XLSX path (directory mode: one per file in the artifact dir)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("process takes exactly one file or directory")
	}
	target := fs.Arg(0)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return processDir(ctx, a, target, *docType, *xlsxOut != "", os.Stdout)
	}
	return processFile(ctx, a, target, *docType, *xlsxOut, os.Stdout)
}

func runJobs(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of recent jobs to list")
	_ = fs.Parse(args)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := a.Jobs.ListRecent(ctx, *limit)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		finished := "-"
		if j.FinishedAt != nil {
			finished = j.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-9s  %-15s  %s  %s\n", j.ID, j.Status, j.DocumentType, finished, j.Filename)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

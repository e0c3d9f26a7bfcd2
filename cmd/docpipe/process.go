package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/app"
	"github.com/joseph-ayodele/statement-insights/internal/async"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/export"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
)

func loadUpload(path, declared string) (pipeline.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{}, err
	}
	return pipeline.Upload{
		Filename:     filepath.Base(path),
		ContentType:  constants.MimeForExt(filepath.Ext(path)),
		Data:         data,
		DeclaredType: declared,
	}, nil
}

func processFile(ctx context.Context, a *app.App, path, declared, xlsxOut string, w io.Writer) error {
	up, err := loadUpload(path, declared)
	if err != nil {
		return err
	}
	res, err := a.Processor.Submit(ctx, up)
	if res == nil {
		return err
	}
	if werr := writeJSON(w, res); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	if xlsxOut != "" && res.Summary != nil {
		return writeXLSX(a, res.Summary, xlsxOut)
	}
	return nil
}

type fileResult struct {
	Path   string                   `json:"path"`
	Result *entity.ProcessingResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// processDir runs every supported file in dir (not recursive) through the batch
// queue and prints one JSON array ordered by path.
func processDir(ctx context.Context, a *app.App, dir, declared string, xlsx bool, w io.Writer) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	q := async.NewProcessorQueue(a.Processor, a.Logger,
		async.WithWorkers(a.Config.Queue.Workers),
		async.WithQueueSize(a.Config.Queue.Size),
		async.WithProcessTimeout(a.Config.Pipeline.ModelTimeout*2),
	)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []fileResult
		failed  int
	)
	record := func(fr fileResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, fr)
		if fr.Error != "" {
			failed++
		}
	}

	for _, e := range entries {
		if e.IsDir() || !isSupported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		up, err := loadUpload(path, declared)
		if err != nil {
			record(fileResult{Path: path, Error: err.Error()})
			continue
		}
		wg.Add(1)
		err = q.Enqueue(ctx, async.Job{
			Upload: up,
			Done: func(res *entity.ProcessingResult, err error) {
				defer wg.Done()
				fr := fileResult{Path: path, Result: res}
				if err != nil {
					fr.Error = err.Error()
				}
				if xlsx && res != nil && res.Summary != nil {
					out := filepath.Join(a.Config.Pipeline.ArtifactDir, res.JobID.String(), "summary.xlsx")
					if xerr := writeXLSX(a, res.Summary, out); xerr != nil {
						a.Logger.Warn("export.xlsx.failed", "path", path, "error", xerr)
					}
				}
				record(fr)
			},
		})
		if err != nil {
			wg.Done()
			record(fileResult{Path: path, Error: err.Error()})
			break
		}
	}
	wg.Wait()
	q.Shutdown(context.Background())

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	if results == nil {
		results = []fileResult{}
	}
	if err := writeJSON(w, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func writeXLSX(a *app.App, summary *entity.StatementSummary, out string) error {
	b, err := export.NewService(a.Logger).ExportStatementXLSX(summary)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/async"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
)

// ResultSink receives each finished file. res is nil when the upload was rejected.
type ResultSink func(path string, res *entity.ProcessingResult, err error)

// Feed enqueues every path received until paths closes or ctx is done. A path seen
// again while its previous submission is still queued is ignored.
func Feed(ctx context.Context, paths <-chan string, q async.Queue, sink ResultSink, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		mu       sync.Mutex
		inFlight = map[string]struct{}{}
	)
	for {
		var path string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case path, ok = <-paths:
			if !ok {
				return
			}
		}

		mu.Lock()
		if _, busy := inFlight[path]; busy {
			mu.Unlock()
			logger.Debug("ingest.skip_in_flight", "path", path)
			continue
		}
		inFlight[path] = struct{}{}
		mu.Unlock()
		release := func() {
			mu.Lock()
			delete(inFlight, path)
			mu.Unlock()
		}

		data, err := os.ReadFile(path)
		if err != nil {
			release()
			logger.Warn("ingest.read_failed", "path", path, "error", err)
			sink(path, nil, err)
			continue
		}
		p := path
		job := async.Job{
			Upload: pipeline.Upload{
				Filename:    filepath.Base(p),
				ContentType: constants.MimeForExt(filepath.Ext(p)),
				Data:        data,
			},
			Done: func(res *entity.ProcessingResult, err error) {
				release()
				sink(p, res, err)
			},
		}
		if err := q.Enqueue(ctx, job); err != nil {
			release()
			logger.Warn("ingest.enqueue_failed", "path", path, "error", err)
			return
		}
		logger.Info("ingest.enqueued", "path", path, "bytes", len(data))
	}
}

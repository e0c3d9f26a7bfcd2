package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one upload waiting for a worker. Done, when set, receives the outcome on
// the worker goroutine.
type Job struct {
	Upload      pipeline.Upload
	SubmittedAt time.Time
	TraceID     string
	Done        func(res *entity.ProcessingResult, err error)
}

// Submitter is the part of the pipeline the queue drives.
type Submitter interface {
	Submit(ctx context.Context, up pipeline.Upload) (*entity.ProcessingResult, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

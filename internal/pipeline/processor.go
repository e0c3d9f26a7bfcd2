package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/aggregate"
	"github.com/joseph-ayodele/statement-insights/internal/classify"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/llm"
	"github.com/joseph-ayodele/statement-insights/internal/metrics"
	"github.com/joseph-ayodele/statement-insights/internal/repository"
	"github.com/joseph-ayodele/statement-insights/internal/workspace"
)

// Upload is one document handed in by a caller.
type Upload struct {
	Filename     string
	ContentType  string
	Data         []byte
	DeclaredType string // optional; "passport" is only reachable this way
}

// Processor runs one job per Submit: allocate workspace, persist input, call the
// model adapter, then sanitize, decode and (for statements) aggregate. Jobs share
// nothing but the adapters, which must be safe for concurrent use.
type Processor struct {
	logger     *slog.Logger
	workspaces *workspace.Manager
	adapters   map[constants.DocumentType]llm.Adapter
	decoder    *llm.Decoder
	jobs       repository.JobRepository
	metrics    *metrics.Pipeline
	mirror     ArtifactMirror

	modelTimeout  time.Duration
	maxUploadSize int64
	keepWorkspace bool
}

type Option func(*Processor)

// ArtifactMirror receives a copy of every persisted raw response, keyed
// "<jobID>/<file>".
type ArtifactMirror interface {
	Put(ctx context.Context, key string, data []byte) error
}

// WithJobRepository records every job in the ledger.
func WithJobRepository(r repository.JobRepository) Option {
	return func(p *Processor) { p.jobs = r }
}

func WithArtifactMirror(m ArtifactMirror) Option {
	return func(p *Processor) { p.mirror = m }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithModelTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.modelTimeout = d
		}
	}
}

func WithMaxUploadSize(n int64) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxUploadSize = n
		}
	}
}

// WithKeepWorkspace leaves job directories on disk for debugging.
func WithKeepWorkspace(keep bool) Option {
	return func(p *Processor) { p.keepWorkspace = keep }
}

func NewProcessor(
	logger *slog.Logger,
	workspaces *workspace.Manager,
	adapters map[constants.DocumentType]llm.Adapter,
	decoder *llm.Decoder,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if decoder == nil {
		decoder = llm.NewDecoder(logger)
	}
	p := &Processor{
		logger:        logger,
		workspaces:    workspaces,
		adapters:      adapters,
		decoder:       decoder,
		modelTimeout:  5 * time.Minute,
		maxUploadSize: 20 << 20,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit processes one upload end to end. The returned result is non-nil whenever a
// job was created; err is the AppError behind a FAILED result. Identity documents
// that cannot be decoded still succeed with the raw-text fallback.
func (p *Processor) Submit(ctx context.Context, up Upload) (*entity.ProcessingResult, error) {
	if err := p.validate(up); err != nil {
		p.logger.Warn("pipeline.upload.rejected", "filename", up.Filename, "error", err)
		return nil, err
	}

	decision := classify.Resolve(up.Filename, up.ContentType, up.DeclaredType)
	docType := decision.Type

	jobID, err := workspace.NewJobID()
	if err != nil {
		return nil, common.NewAppError(common.CodeInternal, "allocate job id", errors.Join(common.ErrInternal, err))
	}
	ctx = common.WithJobID(ctx, jobID.String())
	res := &entity.ProcessingResult{JobID: jobID, DocumentType: docType, Status: constants.JobStatusPending}

	start := time.Now()
	p.logger.Info("pipeline.job.start",
		"job_id", jobID,
		"filename", up.Filename,
		"doc_type", docType,
		"reason", decision.Reason,
		"bytes", len(up.Data),
	)
	done := p.metrics.Track()
	defer done()

	if p.jobs != nil {
		if _, err := p.jobs.Start(ctx, jobID, up.Filename, docType); err != nil {
			return p.fail(ctx, res, common.NewAppError(common.CodeInternal, "record job", err), "")
		}
	}

	ws, err := p.workspaces.Allocate(jobID)
	if err != nil {
		return p.fail(ctx, res, common.NewAppError(common.CodeInternal, "allocate workspace", errors.Join(common.ErrInternal, err)), "")
	}
	if !p.keepWorkspace {
		defer func() { _ = ws.Release() }()
	}

	inputPath, err := ws.Save(inputName(up), up.Data)
	if err != nil {
		return p.fail(ctx, res, common.NewAppError(common.CodeInternal, "persist input", errors.Join(common.ErrInternal, err)), "")
	}

	adapter, ok := p.adapters[docType]
	if !ok || adapter == nil {
		return p.fail(ctx, res, common.NewAdapterError(fmt.Sprintf("no model adapter configured for %s", docType), nil), "")
	}

	res.Status = constants.JobStatusRunning
	if p.jobs != nil {
		if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
			p.logger.Warn("pipeline.job.mark_running_failed", "job_id", jobID, "error", err)
		}
	}

	inv, err := p.invoke(ctx, adapter, inputPath, docType)
	if err != nil {
		partial := readPartial(inv)
		if partial != "" {
			res.RawResponsePath = p.persistRaw(ctx, jobID, partial)
		}
		return p.fail(ctx, res, err, partial)
	}

	raw := inv.RawText
	if raw == "" && inv.ArtifactPath != "" {
		raw = readPartial(inv)
	}
	res.RawResponsePath = p.persistRaw(ctx, jobID, raw)

	switch {
	case docType.IsIdentity():
		doc, decodeErr := p.decoder.DecodeIdentity(raw, docType)
		res.Document = &doc
		if decodeErr != nil {
			res.Fallback = true
			p.metrics.Fallback(string(docType))
		}
	default:
		summary, decodeErr := p.decoder.DecodeStatement(raw)
		if decodeErr != nil {
			return p.fail(ctx, res, decodeErr, "")
		}
		totals := aggregate.ForSummary(summary)
		res.Summary = summary
		res.Totals = &totals
	}

	res.Status = constants.JobStatusSucceeded
	if p.jobs != nil {
		if err := p.jobs.FinishSuccess(context.WithoutCancel(ctx), jobID, res.RawResponsePath, res.Fallback, res.Totals); err != nil {
			p.logger.Warn("pipeline.job.ledger_failed", "job_id", jobID, "error", err)
		}
	}
	p.metrics.JobFinished(string(docType), string(res.Status))

	attrs := []any{
		"job_id", jobID,
		"doc_type", docType,
		"fallback", res.Fallback,
		"raw_response_path", res.RawResponsePath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if res.Totals != nil {
		attrs = append(attrs, "net_balance", res.Totals.NetBalance.String())
	}
	p.logger.Info("pipeline.job.ok", attrs...)
	return res, nil
}

func (p *Processor) validate(up Upload) error {
	v := common.NewValidator().
		Field("filename", up.Filename, common.Required, common.MaxLength(255), common.PlainFilename).
		Field("content", up.Data, common.Required, common.MaxBytes(p.maxUploadSize))
	if up.DeclaredType != "" {
		if _, ok := constants.ParseDocumentType(up.DeclaredType); !ok {
			v.Field("document_type", up.DeclaredType, func(name string, value interface{}) *common.ValidationError {
				return &common.ValidationError{Field: name, Value: value, Message: "must be statement, driving_license or passport"}
			})
		}
	}
	return v.Err()
}

// invoke wraps the adapter call with the model timeout and normalizes its error.
func (p *Processor) invoke(ctx context.Context, adapter llm.Adapter, inputPath string, docType constants.DocumentType) (llm.Invocation, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.modelTimeout)
	defer cancel()

	start := time.Now()
	inv, err := adapter.Invoke(callCtx, inputPath, docType)
	elapsed := time.Since(start)
	p.metrics.ObserveModelCall(string(docType), elapsed)

	if err == nil {
		p.logger.Debug("pipeline.model.ok", "doc_type", docType, "elapsed_ms", elapsed.Milliseconds(), "raw_len", len(inv.RawText))
		return inv, nil
	}
	switch {
	case common.IsTimeout(err) || common.IsAdapterError(err):
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		err = common.NewTimeoutError(fmt.Sprintf("model call exceeded %s", p.modelTimeout), err)
	default:
		err = common.NewAdapterError("model call failed", err)
	}
	p.logger.Error("pipeline.model.failed", "doc_type", docType, "elapsed_ms", elapsed.Milliseconds(), "error", err)
	return inv, err
}

// fail moves the job to FAILED and fills the failure descriptor.
func (p *Processor) fail(ctx context.Context, res *entity.ProcessingResult, err error, partial string) (*entity.ProcessingResult, error) {
	res.Status = constants.JobStatusFailed
	res.Summary, res.Totals, res.Document = nil, nil, nil

	code := common.CodeInternal
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	res.Failure = &entity.Failure{Code: code, Reason: err.Error(), PartialOutput: partial}

	if p.jobs != nil {
		if lerr := p.jobs.FinishFailure(context.WithoutCancel(ctx), res.JobID, err.Error(), res.RawResponsePath); lerr != nil {
			p.logger.Warn("pipeline.job.ledger_failed", "job_id", res.JobID, "error", lerr)
		}
	}
	p.metrics.JobFinished(string(res.DocumentType), string(res.Status))
	p.logger.Error("pipeline.job.failed",
		"job_id", res.JobID,
		"doc_type", res.DocumentType,
		"code", code,
		"has_partial_output", partial != "",
		"error", err,
	)
	return res, err
}

// persistRaw keeps the unmodified model output under the artifact dir.
func (p *Processor) persistRaw(ctx context.Context, jobID uuid.UUID, raw string) string {
	path, err := p.workspaces.PersistArtifact(jobID, constants.RawResponseFile, []byte(raw))
	if err != nil {
		p.logger.Error("pipeline.raw_response.persist_failed", "job_id", jobID, "error", err)
		return ""
	}
	if p.mirror != nil {
		key := jobID.String() + "/" + constants.RawResponseFile
		if err := p.mirror.Put(context.WithoutCancel(ctx), key, []byte(raw)); err != nil {
			p.logger.Warn("pipeline.raw_response.mirror_failed", "job_id", jobID, "error", err)
		}
	}
	return path
}

func readPartial(inv llm.Invocation) string {
	if inv.RawText != "" {
		return inv.RawText
	}
	if inv.ArtifactPath == "" {
		return ""
	}
	b, err := os.ReadFile(inv.ArtifactPath)
	if err != nil {
		return ""
	}
	return string(b)
}

// inputName keeps the original extension so adapters can infer the MIME type.
func inputName(up Upload) string {
	ext := constants.NormalizeExt(filepath.Ext(up.Filename))
	if ext == "" {
		switch {
		case up.ContentType == "application/pdf":
			ext = "pdf"
		case up.ContentType == "image/png":
			ext = "png"
		case up.ContentType == "image/jpeg":
			ext = "jpg"
		default:
			ext = "bin"
		}
	}
	return "input." + ext
}

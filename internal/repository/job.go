package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

type JobRepository interface {
	Start(ctx context.Context, id uuid.UUID, filename string, docType constants.DocumentType) (*entity.Job, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	FinishSuccess(ctx context.Context, id uuid.UUID, rawResponsePath string, fallback bool, totals *entity.Totals) error
	FinishFailure(ctx context.Context, id uuid.UUID, message, rawResponsePath string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Job, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewJobRepository(db *DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

var jobColumns = []string{
	"id", "filename", "document_type", "status", "started_at", "finished_at",
	"error_message", "raw_response_path", "fallback", "total_income", "total_outgoings", "net_balance",
}

func (r *jobRepo) Start(ctx context.Context, id uuid.UUID, filename string, docType constants.DocumentType) (*entity.Job, error) {
	job := &entity.Job{
		ID:           id,
		Filename:     filename,
		DocumentType: docType,
		Status:       constants.JobStatusPending,
		StartedAt:    r.now(),
	}
	query, args, err := sq.Insert("extract_job").
		Columns("id", "filename", "document_type", "status", "started_at", "fallback").
		Values(id.String(), filename, string(docType), string(job.Status), job.StartedAt, false).
		PlaceholderFormat(r.db.placeholder()).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("extract_job start failed", "job_id", id, "err", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", id, "doc_type", docType, "filename", filename)
	return job, nil
}

func (r *jobRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, sq.Eq{"status": string(constants.JobStatusPending)}, map[string]any{
		"status": string(constants.JobStatusRunning),
	})
}

func (r *jobRepo) FinishSuccess(ctx context.Context, id uuid.UUID, rawResponsePath string, fallback bool, totals *entity.Totals) error {
	set := map[string]any{
		"status":            string(constants.JobStatusSucceeded),
		"finished_at":       r.now(),
		"raw_response_path": nullString(rawResponsePath),
		"fallback":          fallback,
	}
	if totals != nil {
		set["total_income"] = totals.TotalIncome.StringFixed(2)
		set["total_outgoings"] = totals.TotalOutgoings.StringFixed(2)
		set["net_balance"] = totals.NetBalance.StringFixed(2)
	}
	if err := r.update(ctx, id, nonTerminal(), set); err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Info("extract_job finished (SUCCEEDED)", "job_id", id, "fallback", fallback)
	return nil
}

func (r *jobRepo) FinishFailure(ctx context.Context, id uuid.UUID, message, rawResponsePath string) error {
	set := map[string]any{
		"status":            string(constants.JobStatusFailed),
		"finished_at":       r.now(),
		"error_message":     message,
		"raw_response_path": nullString(rawResponsePath),
	}
	if err := r.update(ctx, id, nonTerminal(), set); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", id, "error", message)
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query, args, err := sq.Select(jobColumns...).
		From("extract_job").
		Where(sq.Eq{"id": id.String()}).
		PlaceholderFormat(r.db.placeholder()).
		ToSql()
	if err != nil {
		return nil, err
	}
	job, err := scanJob(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return job, nil
}

func (r *jobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := sq.Select(jobColumns...).
		From("extract_job").
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(r.db.placeholder()).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// update applies set to the job when guard matches. Zero rows affected means the job
// is missing or already past the guarded state.
func (r *jobRepo) update(ctx context.Context, id uuid.UUID, guard sq.Sqlizer, set map[string]any) error {
	query, args, err := sq.Update("extract_job").
		SetMap(set).
		Where(sq.Eq{"id": id.String()}).
		Where(guard).
		PlaceholderFormat(r.db.placeholder()).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s not in an updatable state: %w", id, common.ErrNotFound)
	}
	return nil
}

func nonTerminal() sq.Sqlizer {
	return sq.Eq{"status": []string{string(constants.JobStatusPending), string(constants.JobStatusRunning)}}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		job                         entity.Job
		id                          string
		docType, status             string
		finishedAt                  sql.NullTime
		errMsg, rawPath             sql.NullString
		income, outgoings, netTotal sql.NullString
	)
	if err := row.Scan(&id, &job.Filename, &docType, &status, &job.StartedAt, &finishedAt,
		&errMsg, &rawPath, &job.Fallback, &income, &outgoings, &netTotal); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	job.ID = parsed
	job.DocumentType = constants.DocumentType(docType)
	job.Status = constants.JobStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if rawPath.Valid {
		job.RawResponsePath = &rawPath.String
	}
	if income.Valid && outgoings.Valid && netTotal.Valid {
		var t entity.Totals
		if t.TotalIncome, err = entity.ParseMoney(income.String); err != nil {
			return nil, err
		}
		if t.TotalOutgoings, err = entity.ParseMoney(outgoings.String); err != nil {
			return nil, err
		}
		if t.NetBalance, err = entity.ParseMoney(netTotal.String); err != nil {
			return nil, err
		}
		job.Totals = &t
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

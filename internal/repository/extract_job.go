package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
)

const extractJobsTable = "extract_jobs"

var extractJobColumns = []string{
	"id", "file_path", "file_type", "status", "started_at", "finished_at",
	"method", "engine_used", "confidence", "word_count", "metrics_count",
	"notes_count", "needs_review", "error_message", "result_json",
}

type ExtractJobRepository interface {
	Start(ctx context.Context, filePath string, fileType constants.FileType) (uuid.UUID, error)
	Finish(ctx context.Context, jobID uuid.UUID, out entity.ExtractJobOutcome) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	now func() time.Time
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, now: func() time.Time { return time.Now().UTC() }, log: log}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *extractJobRepo) Start(ctx context.Context, filePath string, fileType constants.FileType) (uuid.UUID, error) {
	id := uuid.New()
	query, args := r.builder().Insert(extractJobsTable).
		Columns("id", "file_path", "file_type", "status", "started_at").
		Values(id.String(), filePath, string(fileType), string(constants.JobStatusRunning), r.now()).
		Query()
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.log.Error("extract_job start failed", "path", filePath, "error", err)
		return uuid.Nil, fmt.Errorf("%w: start job: %w", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", id, "path", filePath, "file_type", fileType)
	return id, nil
}

func (r *extractJobRepo) Finish(ctx context.Context, jobID uuid.UUID, out entity.ExtractJobOutcome) error {
	status := constants.JobStatusExtracted
	if !out.Success {
		status = constants.JobStatusFailed
	}
	upd := r.builder().Update(extractJobsTable).
		Set("status", string(status)).
		Set("finished_at", r.now()).
		Set("word_count", out.WordCount).
		Set("metrics_count", out.MetricsCount).
		Set("notes_count", out.NotesCount).
		Set("needs_review", out.NeedsReview)
	setOrNull(upd, "method", out.Method)
	setOrNull(upd, "engine_used", out.EngineUsed)
	setOrNull(upd, "error_message", out.ErrorMessage)
	setOrNull(upd, "result_json", string(out.ResultJSON))
	if out.Confidence != nil {
		upd.Set("confidence", *out.Confidence)
	} else {
		upd.SetNull("confidence")
	}
	query, args := upd.Where(entsql.EQ("id", jobID.String())).Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.log.Error("extract_job finish failed", "job_id", jobID, "error", err)
		return fmt.Errorf("%w: finish job: %w", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.WrapError(common.ErrNotFound, "extract job "+jobID.String())
	}
	if out.Success {
		r.log.Info("extract_job finished", "job_id", jobID, "status", status, "method", out.Method)
	} else {
		r.log.Warn("extract_job finished", "job_id", jobID, "status", status, "error", out.ErrorMessage)
	}
	return nil
}

func setOrNull(u *entsql.UpdateBuilder, column, value string) {
	if value == "" {
		u.SetNull(column)
		return
	}
	u.Set(column, value)
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	b := r.builder()
	query, args := b.Select(extractJobColumns...).
		From(b.Table(extractJobsTable)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	jobs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.WrapError(common.ErrNotFound, "extract job "+jobID.String())
	}
	return jobs[0], nil
}

func (r *extractJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 20
	}
	b := r.builder()
	query, args := b.Select(extractJobColumns...).
		From(b.Table(extractJobsTable)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id")).
		Limit(limit).
		Query()
	return r.query(ctx, query, args)
}

func (r *extractJobRepo) query(ctx context.Context, query string, args []any) ([]*entity.ExtractJob, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query jobs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var jobs []*entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(&rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan job: %w", common.ErrDatabase, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate jobs: %w", common.ErrDatabase, err)
	}
	return jobs, nil
}

func scanJob(rows *entsql.Rows) (*entity.ExtractJob, error) {
	var (
		id, path, fileType, status string
		job                        entity.ExtractJob
		finished                   sql.NullTime
		method, engine, errMsg     sql.NullString
		result                     sql.NullString
		confidence                 sql.NullFloat64
	)
	if err := rows.Scan(&id, &path, &fileType, &status, &job.StartedAt, &finished,
		&method, &engine, &confidence, &job.WordCount, &job.MetricsCount,
		&job.NotesCount, &job.NeedsReview, &errMsg, &result); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	job.ID, job.FilePath, job.FileType, job.Status = parsed, path, fileType, status
	if finished.Valid {
		job.FinishedAt = &finished.Time
	}
	job.Method = nullable(method)
	job.EngineUsed = nullable(engine)
	job.ErrorMessage = nullable(errMsg)
	if confidence.Valid {
		job.Confidence = &confidence.Float64
	}
	if result.Valid && result.String != "" {
		job.ResultJSON = []byte(result.String)
	}
	return &job, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

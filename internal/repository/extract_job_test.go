package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migration is idempotent")
	return db
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSQLitePath(t *testing.T) {
	for dsn, want := range map[string]string{
		"sqlite::memory:":           ":memory:",
		"sqlite:///tmp/jobs.db":     "/tmp/jobs.db",
		"file:jobs.db?cache=shared": "file:jobs.db?cache=shared",
	} {
		got, ok := sqlitePath(dsn)
		assert.True(t, ok, dsn)
		assert.Equal(t, want, got)
	}
	_, ok := sqlitePath("postgres://u:p@localhost/db")
	assert.False(t, ok)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), 0))
}

func TestExtractJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	okID, err := repo.Start(ctx, "/tmp/report.pdf", constants.PDF)
	require.NoError(t, err)

	job, err := repo.Get(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusRunning), job.Status)
	assert.Equal(t, "pdf", job.FileType)
	assert.Nil(t, job.FinishedAt)
	assert.Nil(t, job.Confidence)

	conf := 91.5
	result := json.RawMessage(`{"metrics":[],"notes":[],"sections_found":[]}`)
	require.NoError(t, repo.Finish(ctx, okID, entity.ExtractJobOutcome{
		Success:      true,
		Method:       "pdf-text",
		EngineUsed:   "pdf-native",
		Confidence:   &conf,
		WordCount:    120,
		MetricsCount: 4,
		NotesCount:   2,
		ResultJSON:   result,
	}))

	job, err = repo.Get(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusExtracted), job.Status)
	require.NotNil(t, job.FinishedAt)
	require.NotNil(t, job.Method)
	assert.Equal(t, "pdf-text", *job.Method)
	require.NotNil(t, job.EngineUsed)
	assert.Equal(t, "pdf-native", *job.EngineUsed)
	require.NotNil(t, job.Confidence)
	assert.InDelta(t, 91.5, *job.Confidence, 1e-9)
	assert.Equal(t, 120, job.WordCount)
	assert.Equal(t, 4, job.MetricsCount)
	assert.Equal(t, 2, job.NotesCount)
	assert.Nil(t, job.ErrorMessage)
	assert.JSONEq(t, string(result), string(job.ResultJSON))

	failID, err := repo.Start(ctx, "/tmp/scan.png", constants.IMAGE)
	require.NoError(t, err)
	require.NoError(t, repo.Finish(ctx, failID, entity.ExtractJobOutcome{ErrorMessage: "all OCR engines failed"}))

	job, err = repo.Get(ctx, failID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "all OCR engines failed", *job.ErrorMessage)
	assert.Nil(t, job.Method)
	assert.Empty(t, job.ResultJSON)

	jobs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	ids := []uuid.UUID{jobs[0].ID, jobs[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{okID, failID}, ids)

	jobs, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestExtractJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	missing := uuid.New()
	_, err := repo.Get(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Contains(t, err.Error(), "extract job "+missing.String())

	err = repo.Finish(ctx, uuid.New(), entity.ExtractJobOutcome{Success: true})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

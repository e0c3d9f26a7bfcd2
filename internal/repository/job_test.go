package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

func newTestRepo(t *testing.T) JobRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, Migrate(context.Background(), db), "migrate is idempotent")
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, logger))
	return NewJobRepository(db, logger)
}

func TestJobLifecycleSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id, _ := uuid.NewV7()

	job, err := repo.Start(ctx, id, "statement.pdf", constants.Statement)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status)

	require.NoError(t, repo.MarkRunning(ctx, id))
	totals := &entity.Totals{
		TotalIncome:    entity.MustMoney("6075.00"),
		TotalOutgoings: entity.MustMoney("5243.45"),
		NetBalance:     entity.MustMoney("831.55"),
	}
	require.NoError(t, repo.FinishSuccess(ctx, id, "/out/raw_response.txt", false, totals))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "statement.pdf", got.Filename)
	assert.Equal(t, constants.Statement, got.DocumentType)
	assert.Equal(t, constants.JobStatusSucceeded, got.Status)
	require.NotNil(t, got.FinishedAt)
	require.NotNil(t, got.RawResponsePath)
	assert.Equal(t, "/out/raw_response.txt", *got.RawResponsePath)
	require.NotNil(t, got.Totals)
	assert.Equal(t, "831.55", got.Totals.NetBalance.String())
	assert.Nil(t, got.ErrorMessage)

	err = repo.FinishFailure(ctx, id, "late failure", "")
	assert.ErrorIs(t, err, common.ErrNotFound, "terminal jobs cannot change")
}

func TestJobLifecycleFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id, _ := uuid.NewV7()

	_, err := repo.Start(ctx, id, "licence.jpg", constants.DrivingLicense)
	require.NoError(t, err)
	require.NoError(t, repo.MarkRunning(ctx, id))
	require.NoError(t, repo.FinishFailure(ctx, id, "ADAPTER_ERROR: unreachable", ""))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "ADAPTER_ERROR: unreachable", *got.ErrorMessage)
	assert.Nil(t, got.RawResponsePath)
	assert.Nil(t, got.Totals)
}

func TestMarkRunningTwiceFails(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id, _ := uuid.NewV7()
	_, err := repo.Start(ctx, id, "a.pdf", constants.Statement)
	require.NoError(t, err)
	require.NoError(t, repo.MarkRunning(ctx, id))
	assert.Error(t, repo.MarkRunning(ctx, id))
}

func TestGetMissing(t *testing.T) {
	_, err := newTestRepo(t).Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id, _ := uuid.NewV7()
		ids = append(ids, id)
		_, err := repo.Start(ctx, id, "f.pdf", constants.Statement)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repo.FinishSuccess(ctx, ids[0], "", true, nil))

	jobs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, ids[2], jobs[0].ID)
	assert.Equal(t, ids[1], jobs[1].ID)

	all, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[2].Fallback)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.Error(t, err)
}

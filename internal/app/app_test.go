package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig(t *testing.T) *common.Config {
	t.Setenv("MODEL_PROVIDER", "command")
	t.Setenv("MODEL_COMMAND", "cat {input}")
	dir := t.TempDir()
	t.Setenv("WORK_DIR", filepath.Join(dir, "jobs"))
	t.Setenv("ARTIFACT_DIR", filepath.Join(dir, "out"))
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(dir, "jobs.db"))
	return common.LoadConfig()
}

func TestNewWiresCommandProvider(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), discard())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Gemini)
	assert.NotNil(t, a.Processor)

	res, err := a.Processor.Submit(context.Background(), pipeline.Upload{Filename: "", Data: []byte("x")})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	jobs, err := a.Jobs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Command = " "
	_, err := New(context.Background(), cfg, discard())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestBuildAdapters(t *testing.T) {
	adapters, gc, err := BuildAdapters(common.ModelConfig{Provider: "gemini", APIKey: "k"}, discard())
	require.NoError(t, err)
	require.NotNil(t, gc)
	for _, dt := range []constants.DocumentType{constants.Statement, constants.DrivingLicense, constants.Passport} {
		assert.NotNil(t, adapters[dt], dt)
	}

	_, _, err = BuildAdapters(common.ModelConfig{Provider: "openai"}, discard())
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = BuildAdapters(common.ModelConfig{Provider: "command"}, discard())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

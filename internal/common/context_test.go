package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRequestID(WithJobID(context.Background(), "job-7"), "trace-1")
	LoggerFromContext(ctx, base).Info("llm.http.request")
	assert.Contains(t, buf.String(), "job_id=job-7")
	assert.Contains(t, buf.String(), "request_id=trace-1")

	buf.Reset()
	LoggerFromContext(context.Background(), base).Info("plain")
	assert.NotContains(t, buf.String(), "job_id")
	assert.NotContains(t, buf.String(), "request_id")
}

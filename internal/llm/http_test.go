package llm

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/statement-insights/internal/common"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	ctx := common.WithJobID(context.Background(), "job-42")
	raw, status, err := PostJSON(ctx, srv.Client(), JSONRequest{
		URL:     srv.URL,
		Body:    map[string]string{"a": "b"},
		Headers: map[string]string{"x-goog-api-key": "k"},
	}, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"ok":true}`, string(raw))
	assert.Contains(t, logs.String(), "job_id=job-42")
}

func TestPostJSONErrorsKeepBody(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"quota"}`))
		}))
		defer srv.Close()

		raw, status, err := PostJSON(context.Background(), srv.Client(), JSONRequest{URL: srv.URL, Body: struct{}{}}, testLogger())
		require.Error(t, err)
		assert.Equal(t, http.StatusTooManyRequests, status)
		assert.Equal(t, `{"error":"quota"}`, string(raw))
	})

	t.Run("oversized body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer srv.Close()

		raw, _, err := PostJSON(context.Background(), srv.Client(), JSONRequest{URL: srv.URL, Body: struct{}{}, MaxBytes: 16}, testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrResponseTooLarge)
		assert.Len(t, raw, 16)
	})

	t.Run("connection dropped mid body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, buf, err := w.(http.Hijacker).Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 100\r\n\r\n{\"surname\":\"SMI")
			_ = buf.Flush()
			_ = conn.Close()
		}))
		defer srv.Close()

		raw, status, err := PostJSON(context.Background(), srv.Client(), JSONRequest{URL: srv.URL, Body: struct{}{}}, testLogger())
		require.Error(t, err)
		assert.ErrorContains(t, err, "read response body")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, `{"surname":"SMI`, string(raw))
	})
}

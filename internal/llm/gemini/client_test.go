package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
)

func writeDoc(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4 fake"), 0o644))
	return p
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "k", BaseURL: url, Model: "gemini-test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInvokeSuccess(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := generateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content      content `json:"content"`
			FinishReason string  `json:"finishReason"`
		}{
			Content:      content{Parts: []part{{Text: "```json\n{\"a\":1}"}, {Text: "\n```"}}},
			FinishReason: "STOP",
		})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	doc := writeDoc(t, "input.pdf")
	inv, err := newTestClient(srv.URL).Invoke(context.Background(), doc, constants.Statement)
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"a\":1}\n```", inv.RawText)
	assert.Equal(t, filepath.Join(filepath.Dir(doc), constants.ModelOutputFile), inv.ArtifactPath)

	b, err := os.ReadFile(inv.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, inv.RawText, string(b))

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "application/pdf", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Contains(t, got.Contents[0].Parts[1].Text, "summaryOfIncomeAndOutgoings")
}

func TestInvokeHTTPErrorKeepsPartialBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	doc := writeDoc(t, "id.png")
	inv, err := newTestClient(srv.URL).Invoke(context.Background(), doc, constants.DrivingLicense)
	require.Error(t, err)
	assert.True(t, common.IsAdapterError(err))
	require.NotEmpty(t, inv.ArtifactPath)
	b, _ := os.ReadFile(inv.ArtifactPath)
	assert.Contains(t, string(b), "overloaded")
}

func TestInvokeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(srv.URL).Invoke(ctx, writeDoc(t, "s.pdf"), constants.Statement)
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err), "got %v", err)
}

func TestResponseTextErrors(t *testing.T) {
	_, err := responseText([]byte(`{"candidates":[]}`))
	assert.Error(t, err)
	_, err = responseText([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	assert.ErrorContains(t, err, "SAFETY")
	_, err = responseText([]byte(`not json`))
	assert.Error(t, err)
}

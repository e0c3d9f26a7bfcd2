package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	status  int
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.status != 0 {
		w.WriteHeader(b.status)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.objects[r.URL.Path] = string(body)
	b.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func newMirror(t *testing.T, srv *httptest.Server, prefix string) *S3Mirror {
	t.Helper()
	m, err := NewS3Mirror(context.Background(), S3Config{
		Bucket:    "artifacts",
		Prefix:    prefix,
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func TestS3MirrorPut(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{}}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	m := newMirror(t, srv, "/docpipe/")
	require.NoError(t, m.Put(context.Background(), "job-1/raw_response.txt", []byte("```json\n{}\n```")))

	assert.Equal(t, "```json\n{}\n```", bucket.objects["/artifacts/docpipe/job-1/raw_response.txt"])
}

func TestS3MirrorPutFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeBucket{status: http.StatusForbidden})
	defer srv.Close()

	m := newMirror(t, srv, "")
	err := m.Put(context.Background(), "job-1/raw_response.txt", []byte("x"))
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a/b.txt", (&S3Mirror{}).objectKey("/a/b.txt"))
	assert.Equal(t, "p/a/b.txt", (&S3Mirror{prefix: "p"}).objectKey("a/b.txt"))
}

func TestNewS3MirrorRequiresBucket(t *testing.T) {
	_, err := NewS3Mirror(context.Background(), S3Config{}, nil)
	assert.Error(t, err)
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/statement-insights/internal/common"
)

// DefaultMaxResponseBytes bounds a model response body. Summaries of long statements
// come back in a few hundred KB.
const DefaultMaxResponseBytes int64 = 8 << 20

var ErrResponseTooLarge = errors.New("model response exceeds size limit")

// JSONRequest is one POST to a model endpoint.
type JSONRequest struct {
	URL      string
	Body     any
	Headers  map[string]string
	MaxBytes int64 // 0 means DefaultMaxResponseBytes
}

// PostJSON sends req and returns the response body. Once the request has gone out,
// whatever bytes were read come back with any error (bad status, broken or oversized
// body) so the caller can keep them as partial output.
func PostJSON(ctx context.Context, client *http.Client, req JSONRequest, logger *slog.Logger) ([]byte, int, error) {
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	limit := req.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	log := common.LoggerFromContext(ctx, logger).With("req_id", uuid.NewString())

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	log.Info("llm.http.request", "url", req.URL, "content_length", len(payload))

	resp, err := client.Do(httpReq)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.body_close_error", "error", cerr)
		}
	}()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if readErr == nil && int64(len(raw)) > limit {
		raw = raw[:limit]
		readErr = fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}

	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case readErr != nil:
		log.Error("llm.http.read_error", "status", resp.StatusCode, "partial_bytes", len(raw), "error", readErr)
		return raw, resp.StatusCode, fmt.Errorf("read response body: %w", readErr)
	case resp.StatusCode/100 != 2:
		return raw, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/llm"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Invoke implements llm.Adapter. The model's text is written to model_output.txt
// beside the document; on HTTP failure whatever body came back is written there
// instead and reported as the artifact.
func (c *Client) Invoke(ctx context.Context, documentPath string, docType constants.DocumentType) (llm.Invocation, error) {
	return c.generate(ctx, documentPath, docType, llm.BuildPrompt(docType))
}

// ExtractTransactions asks for the statement's transaction list as CSV.
func (c *Client) ExtractTransactions(ctx context.Context, documentPath string) (llm.Invocation, error) {
	return c.generate(ctx, documentPath, constants.Statement, llm.BuildTransactionsPrompt(constants.AsStringSlice()))
}

func (c *Client) generate(ctx context.Context, documentPath string, docType constants.DocumentType, prompt string) (llm.Invocation, error) {
	start := time.Now()
	artifact := filepath.Join(filepath.Dir(documentPath), constants.ModelOutputFile)
	log := common.LoggerFromContext(ctx, c.logger)

	doc, err := os.ReadFile(documentPath)
	if err != nil {
		return llm.Invocation{}, common.NewAdapterError("read document", err)
	}

	log.Info("llm.gemini.start",
		"model", c.cfg.Model,
		"doc_type", docType,
		"document_bytes", len(doc),
		"temp", c.cfg.Temperature,
	)

	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: constants.MimeForExt(filepath.Ext(documentPath)),
					Data:     base64.StdEncoding.EncodeToString(doc),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	raw, status, httpErr := llm.PostJSON(ctx, c.http, llm.JSONRequest{URL: endpoint, Body: body, Headers: headers, MaxBytes: c.cfg.MaxResponseBytes}, c.logger)
	if httpErr != nil {
		inv := llm.Invocation{}
		if len(raw) > 0 && c.writeArtifact(log, artifact, raw) {
			inv.ArtifactPath = artifact
		}
		log.Error("llm.gemini.http_error",
			"doc_type", docType, "status", status, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if errors.Is(httpErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return inv, common.NewTimeoutError("model call timed out", httpErr)
		}
		return inv, common.NewAdapterError(fmt.Sprintf("gemini request failed (status %d)", status), httpErr)
	}

	text, err := responseText(raw)
	if err != nil {
		inv := llm.Invocation{}
		if c.writeArtifact(log, artifact, raw) {
			inv.ArtifactPath = artifact
		}
		log.Error("llm.gemini.response_error", "doc_type", docType, "error", err, "raw_bytes", len(raw))
		return inv, common.NewAdapterError("unusable gemini response", err)
	}

	inv := llm.Invocation{RawText: text}
	if c.writeArtifact(log, artifact, []byte(text)) {
		inv.ArtifactPath = artifact
	}
	log.Info("llm.gemini.ok",
		"doc_type", docType,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return inv, nil
}

func responseText(raw []byte) (string, error) {
	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", errors.New("no candidates in gemini response")
	}
	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty candidate (finish reason %q)", gr.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

func (c *Client) writeArtifact(log *slog.Logger, path string, data []byte) bool {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("llm.gemini.artifact_write_failed", "path", path, "error", err)
		return false
	}
	return true
}

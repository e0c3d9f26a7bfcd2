package llm

import (
	"context"

	"github.com/joseph-ayodele/statement-insights/constants"
)

// Invocation is what an adapter hands back after calling the model.
// ArtifactPath is set when the adapter wrote its output to disk, including on
// failure, so callers can report partial output.
type Invocation struct {
	RawText      string
	ArtifactPath string
}

// Adapter calls the external model for one persisted document. Implementations
// must be safe for concurrent use.
type Adapter interface {
	Invoke(ctx context.Context, documentPath string, docType constants.DocumentType) (Invocation, error)
}

// AdapterFunc lets plain functions satisfy Adapter.
type AdapterFunc func(ctx context.Context, documentPath string, docType constants.DocumentType) (Invocation, error)

func (f AdapterFunc) Invoke(ctx context.Context, documentPath string, docType constants.DocumentType) (Invocation, error) {
	return f(ctx, documentPath, docType)
}

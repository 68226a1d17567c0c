// Package retrieval implements the pluggable evidence retrieval layer:
// source adapters that normalize external payloads into citations, and a
// composite retriever that fans out and merges their results.
package retrieval

import (
	"context"
	"fmt"

	"github.com/egvia/egvia/internal/model"
)

// Retriever is the interface implemented by every evidence source adapter.
// Retrieve never returns an error for ordinary operational failures; those
// travel as failure messages inside the RetrievalResult. A returned error
// signals a programmer-error condition and is downgraded to a soft failure
// by the composite retriever.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, req *model.InterpretRequest) (*RetrievalResult, error)
}

// RetrievalResult is the canonical output of any retriever: the citations
// found, the query strings actually issued, and the soft failures hit along
// the way.
type RetrievalResult struct {
	Citations []model.Citation
	Queries   []string
	Failures  []string
}

// NewRetrievalResult returns an empty result with non-nil slices so the
// wire representation stays stable
func NewRetrievalResult() *RetrievalResult {
	return &RetrievalResult{
		Citations: []model.Citation{},
		Queries:   []string{},
		Failures:  []string{},
	}
}

// failureMessage formats an adapter failure in the shared
// retrieval.<name>: failed with <kind>: <detail> convention
func failureMessage(name, kind string, err error) string {
	return fmt.Sprintf("retrieval.%s: failed with %s: %v", name, kind, err)
}

package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/egvia/egvia/internal/model"
)

// citationKey is the composite identity used to deduplicate citations
// across adapters: two citations agreeing on all five fields are the same
// evidence item regardless of which adapter produced them.
type citationKey struct {
	source string
	rawID  string
	url    string
	title  string
	year   int
	hasYr  bool
}

func keyOf(c model.Citation) citationKey {
	key := citationKey{
		source: c.Source,
		rawID:  c.RawID,
		url:    c.URL,
		title:  c.Title,
	}
	if c.Year != nil {
		key.year = *c.Year
		key.hasYr = true
	}
	return key
}

// MultiRetriever fans a request out to its configured adapters and merges
// their results. One failing adapter never prevents the others' results
// from being merged.
type MultiRetriever struct {
	retrievers []Retriever
}

// NewMultiRetriever creates a composite retriever over the given adapters
func NewMultiRetriever(retrievers ...Retriever) *MultiRetriever {
	return &MultiRetriever{retrievers: retrievers}
}

// Name implements Retriever
func (m *MultiRetriever) Name() string { return "multi" }

// Retrieve invokes every adapter concurrently and merges the results in
// adapter declaration order, so the merge is deterministic regardless of
// completion order. Adapter panics and returned errors are downgraded to
// tagged soft failures.
func (m *MultiRetriever) Retrieve(ctx context.Context, req *model.InterpretRequest) (*RetrievalResult, error) {
	results := make([]*RetrievalResult, len(m.retrievers))
	var wg sync.WaitGroup

	for i, rt := range m.retrievers {
		wg.Add(1)
		go func(idx int, rt Retriever) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					results[idx] = &RetrievalResult{
						Failures: []string{fmt.Sprintf("retrieval.%s: unexpected panic: %v", rt.Name(), rec)},
					}
				}
			}()

			res, err := rt.Retrieve(ctx, req)
			if err != nil {
				results[idx] = &RetrievalResult{
					Failures: []string{fmt.Sprintf("retrieval.%s: unexpected error: %v", rt.Name(), err)},
				}
				return
			}
			if res == nil {
				res = NewRetrievalResult()
			}
			results[idx] = res
		}(i, rt)
	}
	wg.Wait()

	merged := NewRetrievalResult()
	seen := make(map[citationKey]struct{})
	for _, res := range results {
		merged.Queries = mergeUnique(merged.Queries, res.Queries)
		merged.Failures = mergeUnique(merged.Failures, res.Failures)
		for _, citation := range res.Citations {
			key := keyOf(citation)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged.Citations = append(merged.Citations, citation)
		}
	}

	// Adapter-assigned identifiers are not unique across adapters; renumber
	// sequentially in surviving order.
	for i := range merged.Citations {
		merged.Citations[i].CitationID = fmt.Sprintf("C%d", i+1)
	}

	return merged, nil
}

// mergeUnique appends values to dst, skipping empties and duplicates;
// first occurrence wins
func mergeUnique(dst, values []string) []string {
	for _, v := range values {
		if v == "" || containsString(dst, v) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

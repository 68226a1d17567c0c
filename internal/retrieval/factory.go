package retrieval

import (
	"github.com/egvia/egvia/internal/cache"
	"github.com/egvia/egvia/internal/model"
)

// BuildRetriever assembles the composite retriever from the process
// configuration. Feature flags decide which adapters participate; with no
// flags enabled the composite runs empty and retrieval yields no citations.
func BuildRetriever(cfg *model.Config) Retriever {
	var payloadCache cache.Cache
	if cfg.Cache.Enabled {
		payloadCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	var retrievers []Retriever
	if cfg.Retrieval.EnableClinVar {
		retrievers = append(retrievers, NewClinVarRetriever(ClinVarOptions{
			MaxRecords:        cfg.Retrieval.MaxRecords,
			MaxAttempts:       cfg.Retrieval.MaxAttempts,
			RetryWait:         cfg.Retrieval.RetryWait,
			Timeout:           cfg.Retrieval.Timeout,
			RequestsPerSecond: cfg.Retrieval.RequestsPerSecond,
			Burst:             cfg.Retrieval.Burst,
			Cache:             payloadCache,
			CacheTTL:          cfg.Cache.TTL,
		}))
	}

	return NewMultiRetriever(retrievers...)
}

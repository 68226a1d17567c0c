package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/egvia/egvia/internal/cache"
	"github.com/egvia/egvia/internal/model"
)

const defaultEutilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Sentinels substituted for blank request fields so queries are never built
// from empty segments.
const (
	unknownGene = "UNKNOWN_GENE"
	unknownHGVS = "UNKNOWN_HGVS"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// retrievalError tags an external-call failure with its kind so the
// adapter's failure messages can name transport vs payload problems.
type retrievalError struct {
	kind string // "transport", "status", "payload"
	err  error
}

func (e *retrievalError) Error() string { return e.err.Error() }

func (e *retrievalError) Unwrap() error { return e.err }

func errorKind(err error) string {
	if re, ok := err.(*retrievalError); ok {
		return re.kind
	}
	return "transport"
}

// ClinVarOptions configures a ClinVar retriever. Zero values fall back to
// the defaults the service ships with.
type ClinVarOptions struct {
	// Client is the HTTP client to use. When nil the retriever opens its
	// own client per call and releases its connections on every exit path.
	Client            *http.Client
	BaseURL           string
	MaxRecords        int
	MaxAttempts       int
	RetryWait         time.Duration
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// Cache, when non-nil, stores raw eutils payloads keyed by request URL.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// ClinVarRetriever queries the NCBI eutils ClinVar endpoints and normalizes
// summary records into canonical citations.
type ClinVarRetriever struct {
	client      *http.Client
	baseURL     string
	maxRecords  int
	maxAttempts int
	retryWait   time.Duration
	timeout     time.Duration
	limiter     *rate.Limiter
	cache       cache.Cache
	cacheTTL    time.Duration

	// sleep is injectable for tests so retry delays don't slow the suite
	sleep func(time.Duration)
}

// NewClinVarRetriever creates a ClinVar retriever with the given options
func NewClinVarRetriever(opts ClinVarOptions) *ClinVarRetriever {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultEutilsBaseURL
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 3
	}
	if opts.Burst <= 0 {
		opts.Burst = 3
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}

	return &ClinVarRetriever{
		client:      opts.Client,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		maxRecords:  opts.MaxRecords,
		maxAttempts: opts.MaxAttempts,
		retryWait:   opts.RetryWait,
		timeout:     opts.Timeout,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		sleep:       time.Sleep,
	}
}

// Name implements Retriever
func (r *ClinVarRetriever) Name() string { return "clinvar" }

// normalized trims value and substitutes fallback when nothing remains
func normalized(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// BuildClinVarQueries derives the deterministic ClinVar query terms from
// the request. The primary query carries the field-scoped gene marker;
// duplicates are dropped, first occurrence wins.
func BuildClinVarQueries(req *model.InterpretRequest) []string {
	gene := normalized(req.Gene, unknownGene)
	hgvs := normalized(req.HGVS, unknownHGVS)

	candidates := []string{
		fmt.Sprintf("%s[gene] AND %s", gene, hgvs),
		fmt.Sprintf("%s %s clinvar", gene, hgvs),
	}

	deduped := make([]string, 0, len(candidates))
	for _, q := range candidates {
		if !containsString(deduped, q) {
			deduped = append(deduped, q)
		}
	}
	return deduped
}

// Retrieve implements the two-phase eutils protocol: esearch for record
// identifiers, then esummary for the identifier batch. Operational
// failures become a single tagged failure message; the method itself never
// errors.
func (r *ClinVarRetriever) Retrieve(ctx context.Context, req *model.InterpretRequest) (*RetrievalResult, error) {
	result := NewRetrievalResult()
	result.Queries = BuildClinVarQueries(req)
	if len(result.Queries) == 0 {
		return result, nil
	}

	client := r.client
	if client == nil {
		client = &http.Client{Timeout: r.timeout}
		defer client.CloseIdleConnections()
	}

	searchParams := url.Values{}
	searchParams.Set("db", "clinvar")
	searchParams.Set("retmode", "json")
	searchParams.Set("retmax", strconv.Itoa(r.maxRecords))
	searchParams.Set("term", result.Queries[0])

	searchPayload, err := r.getJSON(ctx, client, r.baseURL+"/esearch.fcgi", searchParams)
	if err != nil {
		result.Failures = append(result.Failures, failureMessage(r.Name(), errorKind(err), err))
		return result, nil
	}

	ids := extractSearchIDs(searchPayload)
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) > r.maxRecords {
		ids = ids[:r.maxRecords]
	}

	summaryParams := url.Values{}
	summaryParams.Set("db", "clinvar")
	summaryParams.Set("retmode", "json")
	summaryParams.Set("id", strings.Join(ids, ","))

	summaryPayload, err := r.getJSON(ctx, client, r.baseURL+"/esummary.fcgi", summaryParams)
	if err != nil {
		result.Failures = append(result.Failures, failureMessage(r.Name(), errorKind(err), err))
		return result, nil
	}

	result.Citations = ParseClinVarSummary(summaryPayload)
	return result, nil
}

// getJSON issues a GET with bounded fixed-delay retries. Transport errors,
// non-2xx statuses, and malformed payloads are all retried; the final
// attempt's failure propagates to the caller. Successful payloads may be
// served from and stored into the payload cache.
func (r *ClinVarRetriever) getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values) (map[string]any, error) {
	requestURL := endpoint + "?" + params.Encode()

	if r.cache != nil {
		if body, found := r.cache.Get(cache.Key(requestURL)); found {
			payload, err := decodePayload(body)
			if err == nil {
				return payload, nil
			}
			r.cache.Delete(cache.Key(requestURL))
		}
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			r.sleep(r.retryWait)
		}

		body, err := r.fetch(ctx, client, requestURL)
		if err != nil {
			lastErr = err
			continue
		}

		payload, err := decodePayload(body)
		if err != nil {
			lastErr = err
			continue
		}

		if r.cache != nil {
			r.cache.Set(cache.Key(requestURL), body, r.cacheTTL)
		}
		return payload, nil
	}
	return nil, lastErr
}

// fetch performs one rate-limited GET and returns the raw body
func (r *ClinVarRetriever) fetch(ctx context.Context, client *http.Client, requestURL string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &retrievalError{kind: "transport", err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &retrievalError{kind: "transport", err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &retrievalError{kind: "transport", err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retrievalError{
			kind: "status",
			err:  fmt.Errorf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL.Host),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retrievalError{kind: "transport", err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func decodePayload(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &retrievalError{kind: "payload", err: fmt.Errorf("decode response: %w", err)}
	}
	if payload == nil {
		return nil, &retrievalError{kind: "payload", err: fmt.Errorf("expected JSON object response")}
	}
	return payload, nil
}

// extractSearchIDs pulls the ordered identifier list out of an esearch
// payload; anything malformed yields an empty list rather than an error
func extractSearchIDs(payload map[string]any) []string {
	esearch, ok := payload["esearchresult"].(map[string]any)
	if !ok {
		return nil
	}
	rawIDs, ok := esearch["idlist"].([]any)
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, ok := raw.(string); ok && strings.TrimSpace(id) != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseClinVarSummary normalizes an esummary payload into citations.
// Identifier extraction prefers the accession field with the raw uid as
// fallback; the year comes from the first 19xx/20xx match in the
// last-evaluated date; classification fields land in metadata only when
// non-empty, and an empty metadata map is omitted entirely.
func ParseClinVarSummary(payload map[string]any) []model.Citation {
	result, ok := payload["result"].(map[string]any)
	if !ok {
		return []model.Citation{}
	}
	rawUIDs, ok := result["uids"].([]any)
	if !ok {
		return []model.Citation{}
	}

	citations := []model.Citation{}
	for _, rawUID := range rawUIDs {
		uid, ok := rawUID.(string)
		if !ok {
			continue
		}
		record, ok := result[uid].(map[string]any)
		if !ok {
			continue
		}

		accession := stringField(record, "accession")
		title := stringField(record, "title")

		germline := mapField(record, "germline_classification")
		clinical := mapField(record, "clinical_significance")

		lastEvaluated := stringField(germline, "last_evaluated")
		if lastEvaluated == "" {
			lastEvaluated = stringField(clinical, "last_evaluated")
		}

		rawID := accession
		if rawID == "" {
			rawID = strings.TrimSpace(uid)
		}
		recordURL := ""
		if rawID != "" {
			recordURL = "https://www.ncbi.nlm.nih.gov/clinvar/?term=" + rawID
		}

		classification := stringField(germline, "description")
		if classification == "" {
			classification = stringField(clinical, "description")
		}
		reviewStatus := stringField(record, "review_status")

		metadata := map[string]string{}
		if classification != "" {
			metadata["classification"] = classification
		}
		if reviewStatus != "" {
			metadata["review_status"] = reviewStatus
		}
		if lastEvaluated != "" {
			metadata["last_evaluated"] = lastEvaluated
		}
		if len(metadata) == 0 {
			metadata = nil
		}

		citations = append(citations, model.Citation{
			CitationID: fmt.Sprintf("C%d", len(citations)+1),
			Source:     "ClinVar",
			Title:      title,
			Year:       extractYear(lastEvaluated),
			URL:        recordURL,
			RawID:      rawID,
			Metadata:   metadata,
		})
	}
	return citations
}

// extractYear scans a date-like string for the first plausible 4-digit year
func extractYear(value string) *int {
	match := yearPattern.FindString(value)
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &year
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func mapField(m map[string]any, key string) map[string]any {
	if nested, ok := m[key].(map[string]any); ok {
		return nested
	}
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/egvia/egvia/internal/cache"
	"github.com/egvia/egvia/internal/model"
)

func testRequest() *model.InterpretRequest {
	return &model.InterpretRequest{
		Gene:         "BRCA1",
		HGVS:         "c.68_69delAG",
		VariantType:  model.VariantSNV,
		AssayContext: model.AssaySomatic,
	}
}

func newTestClinVar(baseURL string, c cache.Cache) *ClinVarRetriever {
	r := NewClinVarRetriever(ClinVarOptions{
		BaseURL:           baseURL,
		MaxRecords:        5,
		MaxAttempts:       3,
		RetryWait:         time.Millisecond,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
		Cache:             c,
	})
	r.sleep = func(time.Duration) {}
	return r
}

func TestBuildClinVarQueries(t *testing.T) {
	tests := []struct {
		name string
		gene string
		hgvs string
		want []string
	}{
		{
			name: "both fields set",
			gene: "BRCA1",
			hgvs: "c.68_69delAG",
			want: []string{"BRCA1[gene] AND c.68_69delAG", "BRCA1 c.68_69delAG clinvar"},
		},
		{
			name: "whitespace trimmed",
			gene: "  TP53  ",
			hgvs: "\tc.215C>G\n",
			want: []string{"TP53[gene] AND c.215C>G", "TP53 c.215C>G clinvar"},
		},
		{
			name: "blank fields use sentinels",
			gene: "",
			hgvs: "   ",
			want: []string{"UNKNOWN_GENE[gene] AND UNKNOWN_HGVS", "UNKNOWN_GENE UNKNOWN_HGVS clinvar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.InterpretRequest{Gene: tt.gene, HGVS: tt.hgvs}
			got := BuildClinVarQueries(req)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d queries, got %v", len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("query[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		value string
		want  int
		none  bool
	}{
		{"2023/05/01 00:00", 2023, false},
		{"last reviewed 1998", 1998, false},
		{"2019-01-02; updated 2021", 2019, false},
		{"year 1848", 0, true},
		{"", 0, true},
		{"12345", 0, true},
	}

	for _, tt := range tests {
		got := extractYear(tt.value)
		if tt.none {
			if got != nil {
				t.Errorf("extractYear(%q) = %v, want nil", tt.value, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("extractYear(%q) = %v, want %d", tt.value, got, tt.want)
		}
	}
}

func TestParseClinVarSummary(t *testing.T) {
	payload := map[string]any{
		"result": map[string]any{
			"uids": []any{"111", "222", "333"},
			"111": map[string]any{
				"uid":       "111",
				"accession": "VCV000017677",
				"title":     "NM_007294.4(BRCA1):c.68_69del",
				"germline_classification": map[string]any{
					"description":    "Pathogenic",
					"last_evaluated": "2023/05/01 00:00",
				},
				"review_status": "reviewed by expert panel",
			},
			"222": map[string]any{
				"uid": "222",
				"clinical_significance": map[string]any{
					"description":    "Uncertain significance",
					"last_evaluated": "2016-03-12",
				},
			},
			// not an object, skipped
			"333": "bogus",
		},
	}

	citations := ParseClinVarSummary(payload)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}

	first := citations[0]
	if first.CitationID != "C1" {
		t.Errorf("expected citation_id C1, got %s", first.CitationID)
	}
	if first.Source != "ClinVar" {
		t.Errorf("expected source ClinVar, got %s", first.Source)
	}
	if first.RawID != "VCV000017677" {
		t.Errorf("expected accession as raw id, got %s", first.RawID)
	}
	if first.Year == nil || *first.Year != 2023 {
		t.Errorf("expected year 2023, got %v", first.Year)
	}
	if !strings.Contains(first.URL, "VCV000017677") {
		t.Errorf("expected record URL to carry the raw id, got %s", first.URL)
	}
	if first.Metadata["classification"] != "Pathogenic" {
		t.Errorf("unexpected classification metadata: %v", first.Metadata)
	}
	if first.Metadata["review_status"] != "reviewed by expert panel" {
		t.Errorf("unexpected review_status metadata: %v", first.Metadata)
	}

	second := citations[1]
	if second.RawID != "222" {
		t.Errorf("expected uid fallback raw id, got %s", second.RawID)
	}
	if second.Metadata["classification"] != "Uncertain significance" {
		t.Errorf("expected clinical_significance fallback, got %v", second.Metadata)
	}
	if second.Year == nil || *second.Year != 2016 {
		t.Errorf("expected year 2016, got %v", second.Year)
	}
}

func TestParseClinVarSummary_EmptyMetadataOmitted(t *testing.T) {
	payload := map[string]any{
		"result": map[string]any{
			"uids": []any{"444"},
			"444":  map[string]any{"uid": "444", "title": "bare record"},
		},
	}

	citations := ParseClinVarSummary(payload)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].Metadata != nil {
		t.Errorf("expected nil metadata for bare record, got %v", citations[0].Metadata)
	}
	if citations[0].Year != nil {
		t.Errorf("expected nil year, got %v", citations[0].Year)
	}
}

func TestClinVarRetriever_Retrieve_Success(t *testing.T) {
	var summaryCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			if got := r.URL.Query().Get("db"); got != "clinvar" {
				t.Errorf("expected db=clinvar, got %s", got)
			}
			if got := r.URL.Query().Get("term"); got != "BRCA1[gene] AND c.68_69delAG" {
				t.Errorf("unexpected search term: %s", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"esearchresult": map[string]any{"idlist": []string{"111"}},
			})
		case "/esummary.fcgi":
			atomic.AddInt32(&summaryCalls, 1)
			if got := r.URL.Query().Get("id"); got != "111" {
				t.Errorf("unexpected summary id batch: %s", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"uids": []string{"111"},
					"111": map[string]any{
						"uid":       "111",
						"accession": "VCV000000111",
						"title":     "test record",
					},
				},
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, nil)
	result, err := retriever.Retrieve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(result.Failures) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failures)
	}
	if len(result.Queries) != 2 {
		t.Errorf("expected 2 queries, got %v", result.Queries)
	}
	if len(result.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(result.Citations))
	}
	if result.Citations[0].RawID != "VCV000000111" {
		t.Errorf("unexpected citation: %+v", result.Citations[0])
	}
	if atomic.LoadInt32(&summaryCalls) != 1 {
		t.Errorf("expected 1 summary call, got %d", summaryCalls)
	}
}

func TestClinVarRetriever_Retrieve_EmptySearch(t *testing.T) {
	var summaryCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/esummary.fcgi" {
			atomic.AddInt32(&summaryCalls, 1)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"esearchresult": map[string]any{"idlist": []string{}},
		})
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, nil)
	result, err := retriever.Retrieve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(result.Citations) != 0 || len(result.Failures) != 0 {
		t.Errorf("expected empty clean result, got %+v", result)
	}
	if len(result.Queries) == 0 {
		t.Error("expected queries to be reported even with no hits")
	}
	if atomic.LoadInt32(&summaryCalls) != 0 {
		t.Error("expected no summary call after an empty search")
	}
}

func TestClinVarRetriever_Retrieve_ServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, nil)
	result, err := retriever.Retrieve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Retrieve must not error on operational failures: %v", err)
	}

	if len(result.Failures) != 1 {
		t.Fatalf("expected exactly one failure message, got %v", result.Failures)
	}
	if !strings.HasPrefix(result.Failures[0], "retrieval.clinvar: failed with status:") {
		t.Errorf("unexpected failure message: %s", result.Failures[0])
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(result.Citations))
	}
	if len(result.Queries) != 2 {
		t.Errorf("expected queries reported on failure, got %v", result.Queries)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 bounded attempts, got %d", calls)
	}
}

func TestClinVarRetriever_Retrieve_RetryThenSucceed(t *testing.T) {
	var searchCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			if atomic.AddInt32(&searchCalls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"esearchresult": map[string]any{"idlist": []string{"9"}},
			})
		case "/esummary.fcgi":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"uids": []string{"9"},
					"9":    map[string]any{"uid": "9", "title": "recovered"},
				},
			})
		}
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, nil)
	result, err := retriever.Retrieve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(result.Failures) != 0 {
		t.Errorf("expected transient failure to be retried away, got %v", result.Failures)
	}
	if len(result.Citations) != 1 {
		t.Errorf("expected 1 citation after retry, got %d", len(result.Citations))
	}
}

func TestClinVarRetriever_Retrieve_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, nil)
	result, err := retriever.Retrieve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Retrieve must not error on malformed payloads: %v", err)
	}

	if len(result.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", result.Failures)
	}
	if !strings.HasPrefix(result.Failures[0], "retrieval.clinvar: failed with payload:") {
		t.Errorf("unexpected failure message: %s", result.Failures[0])
	}
}

func TestClinVarRetriever_Retrieve_CacheHit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/esearch.fcgi":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"esearchresult": map[string]any{"idlist": []string{"5"}},
			})
		case "/esummary.fcgi":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"uids": []string{"5"},
					"5":    map[string]any{"uid": "5", "title": "cached record"},
				},
			})
		}
	}))
	defer server.Close()

	retriever := newTestClinVar(server.URL, cache.NewMemoryCache(time.Minute, time.Minute))

	for i := 0; i < 2; i++ {
		result, err := retriever.Retrieve(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if len(result.Citations) != 1 {
			t.Fatalf("expected 1 citation on pass %d, got %d", i+1, len(result.Citations))
		}
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected second retrieve to hit the cache, upstream calls = %d", got)
	}
}

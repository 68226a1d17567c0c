package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/egvia/egvia/internal/model"
	"github.com/egvia/egvia/internal/pipeline"
	"github.com/egvia/egvia/internal/retrieval"
)

func newTestServer() *Server {
	orch := pipeline.NewOrchestrator(retrieval.NewMultiRetriever(), nil)
	return New(model.DefaultConfig().Server, orch, nil)
}

func postInterpret(t *testing.T, s *Server, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/interpret", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health model.HealthzResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %s", health.Status)
	}
}

func TestInterpret_ContractShape(t *testing.T) {
	s := newTestServer()

	resp := postInterpret(t, s, map[string]any{
		"gene":          "BRCA1",
		"hgvs":          "c.68_69delAG",
		"variant_type":  "SNV",
		"assay_context": "somatic",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	for _, key := range []string{"request_id", "draft", "evidence_table", "confidence_panel", "trace"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	draft, _ := payload["draft"].(map[string]any)
	for _, key := range []string{"summary", "what_is_known", "conflicting_evidence", "limitations", "uncertainty", "disclaimer"} {
		if _, ok := draft[key].(string); !ok {
			t.Errorf("draft missing string section %q", key)
		}
	}

	// List-valued fields serialize as arrays even when empty.
	if _, ok := payload["evidence_table"].([]any); !ok {
		t.Error("evidence_table must serialize as a JSON array")
	}
	trace, _ := payload["trace"].(map[string]any)
	if _, ok := trace["verification_failures"].([]any); !ok {
		t.Error("trace.verification_failures must serialize as a JSON array")
	}
	if trace["request_id"] != payload["request_id"] {
		t.Error("trace.request_id must match top-level request_id")
	}

	timings, _ := trace["timings_ms"].(map[string]any)
	if len(timings) != 5 {
		t.Errorf("expected 5 timing entries, got %v", timings)
	}

	panel, _ := payload["confidence_panel"].(map[string]any)
	if abstain, ok := panel["abstain"].(bool); !ok || !abstain {
		t.Errorf("expected abstain=true with no adapters enabled, got %v", panel["abstain"])
	}
	if conf, ok := panel["confidence"].(float64); !ok || conf != 0.1 {
		t.Errorf("expected confidence 0.1, got %v", panel["confidence"])
	}
	if _, ok := panel["abstain_reasons"].([]any); !ok {
		t.Error("abstain_reasons must serialize as a JSON array")
	}
}

func TestInterpret_InvalidEnumRejected(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"bad variant_type", map[string]any{"variant_type": "CNV", "assay_context": "somatic"}},
		{"missing variant_type", map[string]any{"assay_context": "somatic"}},
		{"bad assay_context", map[string]any{"variant_type": "SNV", "assay_context": "liquid-biopsy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postInterpret(t, s, tt.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestInterpret_MalformedBodyRejected(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/interpret", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

package model

// Draft holds the six uncertainty-forward text sections of an
// interpretation. None of the sections may contain treatment-directive
// language; verification enforces this before a response is returned.
type Draft struct {
	Summary             string `json:"summary"`
	WhatIsKnown         string `json:"what_is_known"`
	ConflictingEvidence string `json:"conflicting_evidence"`
	Limitations         string `json:"limitations"`
	Uncertainty         string `json:"uncertainty"`
	Disclaimer          string `json:"disclaimer"`
}

// Sections returns the draft sections in contract order, keyed by their
// wire names
func (d Draft) Sections() map[string]string {
	return map[string]string{
		"summary":              d.Summary,
		"what_is_known":        d.WhatIsKnown,
		"conflicting_evidence": d.ConflictingEvidence,
		"limitations":          d.Limitations,
		"uncertainty":          d.Uncertainty,
		"disclaimer":           d.Disclaimer,
	}
}

// ConfidencePanel carries the confidence score and abstention decision
type ConfidencePanel struct {
	Confidence     float64  `json:"confidence"`
	Reasons        []string `json:"reasons"`
	Abstain        bool     `json:"abstain"`
	AbstainReasons []string `json:"abstain_reasons"`
}

// Trace is the per-request observability record. Every timings_ms value is
// at least 1; a sub-millisecond stage is never reported as zero.
type Trace struct {
	RequestID            string           `json:"request_id"`
	RetrievalQueries     []string         `json:"retrieval_queries"`
	SourceCount          int              `json:"source_count"`
	ClaimCount           int              `json:"claim_count"`
	ConflictCount        int              `json:"conflict_count"`
	VerificationChecks   []string         `json:"verification_checks"`
	VerificationFailures []string         `json:"verification_failures"`
	TimingsMS            map[string]int64 `json:"timings_ms"`
}

// InterpretResponse is the output payload for POST /v1/interpret. The shape
// is contract-stable: it must not change as the stub stages evolve into
// real implementations.
type InterpretResponse struct {
	RequestID       string               `json:"request_id"`
	Draft           Draft                `json:"draft"`
	EvidenceTable   []EvidenceTableEntry `json:"evidence_table"`
	ConfidencePanel ConfidencePanel      `json:"confidence_panel"`
	Trace           Trace                `json:"trace"`
}

// HealthzResponse is the health check payload
type HealthzResponse struct {
	Status string `json:"status"`
}

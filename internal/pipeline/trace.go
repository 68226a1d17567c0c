package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage timing keys recorded in every trace.
const (
	stageRetrieval    = "retrieval"
	stageExtraction   = "extraction"
	stageSynthesis    = "synthesis"
	stageVerification = "verification"
	stageTotal        = "total"
)

// Verification check names reported in every trace.
var verificationChecks = []string{
	"claim_citation_binding",
	"treatment_language_block",
	"abstention_gate",
}

// newRequestID creates an opaque per-request identifier
func newRequestID() string {
	return uuid.NewString()
}

// elapsedMS returns whole milliseconds between two marks, never less than
// 1 so a sub-millisecond stub stage is not misreported as zero time
func elapsedMS(start, end time.Time) int64 {
	ms := end.Sub(start).Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

package model

// Citation is a normalized record of one external evidence source.
// Citation identifiers are reassigned during merge and are only unique
// within a single response.
type Citation struct {
	CitationID string            `json:"citation_id"`
	Source     string            `json:"source"`
	Title      string            `json:"title,omitempty"`
	Year       *int              `json:"year,omitempty"`
	URL        string            `json:"url,omitempty"`
	RawID      string            `json:"raw_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Stance records whether a claim supports or contradicts the variant
// interpretation question
type Stance string

const (
	StanceSupport    Stance = "support"
	StanceContradict Stance = "contradict"
	StanceNeutral    Stance = "neutral"
)

// Strength grades the evidence behind a claim
type Strength string

const (
	StrengthStrong   Strength = "Strong"
	StrengthModerate Strength = "Moderate"
	StrengthWeak     Strength = "Weak"
)

// Claim is a single statement bound to exactly one citation. CitationID
// must reference a Citation present in the same response's evidence table.
type Claim struct {
	ClaimID    string   `json:"claim_id"`
	Text       string   `json:"text"`
	CitationID string   `json:"citation_id"`
	Stance     Stance   `json:"supports_or_contradicts"`
	Strength   Strength `json:"evidence_strength"`
	Year       *int     `json:"year,omitempty"`
}

// EvidenceTableEntry pairs one citation with one claim; this is the unit
// exposed to callers.
type EvidenceTableEntry struct {
	Citation Citation `json:"citation"`
	Claim    Claim    `json:"claim"`
}

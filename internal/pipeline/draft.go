package pipeline

import (
	"fmt"

	"github.com/egvia/egvia/internal/model"
)

// buildPlaceholderEvidenceTable represents retrieved sources without
// asserting biomedical claims: one neutral, Weak placeholder claim per
// citation, bound to that citation's identifier. Real extraction replaces
// this without changing the binding invariant.
func buildPlaceholderEvidenceTable(citations []model.Citation) []model.EvidenceTableEntry {
	entries := []model.EvidenceTableEntry{}
	for _, citation := range citations {
		claim := model.Claim{
			ClaimID:    "placeholder-" + citation.CitationID,
			Text:       fmt.Sprintf("Source retrieved from %s; claim extraction not yet implemented for this citation.", citation.Source),
			CitationID: citation.CitationID,
			Stance:     model.StanceNeutral,
			Strength:   model.StrengthWeak,
			Year:       citation.Year,
		}
		entries = append(entries, model.EvidenceTableEntry{Citation: citation, Claim: claim})
	}
	return entries
}

// buildStubDraft creates the deterministic uncertainty-forward draft from
// aggregate counts. The summary, conflicting-evidence, uncertainty, and
// disclaimer sections are fixed boilerplate; what-is-known and limitations
// distinguish "sources but no validated claims" from "nothing retrieved".
func buildStubDraft(sourceCount, claimCount int) model.Draft {
	var whatIsKnown, limitations string
	if sourceCount > 0 && claimCount == 0 {
		whatIsKnown = fmt.Sprintf("%d evidence source(s) were retrieved, but no validated claims are available yet.", sourceCount)
		limitations = "Evidence sources were retrieved, but claim extraction is not yet implemented; no validated claims were produced."
	} else {
		whatIsKnown = "No validated evidence claims were produced in this run."
		limitations = "No sources were retrieved in this run, and claim extraction remains stubbed."
	}

	return model.Draft{
		Summary:             "Evidence is currently insufficient to produce a citation-grounded interpretation.",
		WhatIsKnown:         whatIsKnown,
		ConflictingEvidence: "No direct claim conflicts were identified because no claims were extracted.",
		Limitations:         limitations,
		Uncertainty:         "Uncertainty is high due to absence of supporting claims and citations.",
		Disclaimer:          "For assistive evidence synthesis only; not for diagnostic or clinical decision use.",
	}
}

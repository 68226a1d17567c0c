// Package policy holds the deterministic safety and abstention rules
// applied during verification. Both entry points are pure functions with
// no I/O and no mutable state.
package policy

import (
	"regexp"

	"github.com/egvia/egvia/internal/model"
)

// treatmentPattern matches treatment-directive stems with arbitrary word
// continuation, so "treatment" and "recommending" both match.
var treatmentPattern = regexp.MustCompile(`(?i)\b(treat|therapy|dose|prescribe|recommend)\w*`)

// ContainsTreatmentLanguage reports whether text includes treatment-like
// language banned from draft sections
func ContainsTreatmentLanguage(text string) bool {
	return treatmentPattern.MatchString(text)
}

// BuildConfidencePanel maps the evidence state onto a fixed confidence
// tier. This is a three-branch deterministic table, not a learned score:
//
//	no claims            -> 0.1, abstain
//	claims with conflict -> 0.4, abstain
//	claims, no conflict  -> 0.6
func BuildConfidencePanel(claimCount, conflictCount, sourceCount int) model.ConfidencePanel {
	if claimCount == 0 {
		reasons := []string{
			"No claims extracted after schema validation.",
			"Interpretation is abstained because evidence is missing.",
		}
		abstainReasons := []string{
			"No claims extracted after schema validation.",
			"Insufficient evidence for citation-grounded interpretation.",
		}
		if sourceCount == 0 {
			noSources := "No sources retrieved."
			reasons = append([]string{noSources}, reasons...)
			abstainReasons = append([]string{noSources}, abstainReasons...)
		}
		return model.ConfidencePanel{
			Confidence:     0.1,
			Reasons:        reasons,
			Abstain:        true,
			AbstainReasons: abstainReasons,
		}
	}

	reasons := []string{"At least one claim was available."}
	if conflictCount > 0 {
		reasons = append(reasons, "Conflicting evidence detected.")
		return model.ConfidencePanel{
			Confidence:     0.4,
			Reasons:        reasons,
			Abstain:        true,
			AbstainReasons: []string{"Conflicting evidence is too high."},
		}
	}

	return model.ConfidencePanel{
		Confidence:     0.6,
		Reasons:        reasons,
		Abstain:        false,
		AbstainReasons: []string{},
	}
}

package policy

import "testing"

func TestContainsTreatmentLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"treatment directive", "We recommend treatment.", true},
		{"stem continuation", "The committee is recommending a review.", true},
		{"therapy", "Gene therapy trials are ongoing.", true},
		{"dose", "The dose was escalated over time.", true},
		{"prescribe case-insensitive", "Do not PRESCRIBE this.", true},
		{"boilerplate", "Evidence is currently insufficient to produce a citation-grounded interpretation.", false},
		{"empty", "", false},
		{"stem inside word", "mistreatment of data", false},
		{"plain clinical text", "The variant was observed in two probands.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsTreatmentLanguage(tt.text); got != tt.want {
				t.Errorf("ContainsTreatmentLanguage(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBuildConfidencePanel_NoClaims(t *testing.T) {
	panel := BuildConfidencePanel(0, 0, 2)

	if panel.Confidence != 0.1 {
		t.Errorf("expected confidence 0.1, got %v", panel.Confidence)
	}
	if !panel.Abstain {
		t.Error("expected abstain=true with zero claims")
	}
	if len(panel.AbstainReasons) == 0 {
		t.Error("expected abstain reasons")
	}
	for _, r := range panel.Reasons {
		if r == "No sources retrieved." {
			t.Error("did not expect no-sources reason when sources exist")
		}
	}
}

func TestBuildConfidencePanel_NoClaimsNoSources(t *testing.T) {
	panel := BuildConfidencePanel(0, 0, 0)

	if panel.Confidence != 0.1 || !panel.Abstain {
		t.Fatalf("expected 0.1/abstain, got %v/%v", panel.Confidence, panel.Abstain)
	}
	if len(panel.Reasons) == 0 || panel.Reasons[0] != "No sources retrieved." {
		t.Errorf("expected no-sources reason prepended, got %v", panel.Reasons)
	}
	if len(panel.AbstainReasons) == 0 || panel.AbstainReasons[0] != "No sources retrieved." {
		t.Errorf("expected no-sources abstain reason prepended, got %v", panel.AbstainReasons)
	}
}

func TestBuildConfidencePanel_Conflict(t *testing.T) {
	panel := BuildConfidencePanel(3, 1, 3)

	if panel.Confidence != 0.4 {
		t.Errorf("expected confidence 0.4, got %v", panel.Confidence)
	}
	if !panel.Abstain {
		t.Error("expected abstain=true on conflicting evidence")
	}
	if len(panel.AbstainReasons) != 1 {
		t.Errorf("expected one abstain reason, got %v", panel.AbstainReasons)
	}
}

func TestBuildConfidencePanel_Clean(t *testing.T) {
	panel := BuildConfidencePanel(3, 0, 3)

	if panel.Confidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %v", panel.Confidence)
	}
	if panel.Abstain {
		t.Error("expected abstain=false")
	}
	if len(panel.AbstainReasons) != 0 {
		t.Errorf("expected no abstain reasons, got %v", panel.AbstainReasons)
	}
	if panel.AbstainReasons == nil {
		t.Error("abstain_reasons must serialize as an empty list, not null")
	}
}

// The contract does not force abstain_reasons to be non-empty exactly when
// abstain is true; this test documents the coupling the table actually
// produces without tightening it.
func TestBuildConfidencePanel_AbstainReasonCoupling(t *testing.T) {
	cases := []struct{ claims, conflicts, sources int }{
		{0, 0, 0},
		{0, 0, 5},
		{2, 1, 2},
		{2, 0, 2},
	}

	for _, c := range cases {
		panel := BuildConfidencePanel(c.claims, c.conflicts, c.sources)
		if panel.Abstain != (len(panel.AbstainReasons) > 0) {
			t.Errorf("claims=%d conflicts=%d sources=%d: abstain=%v but %d abstain reasons",
				c.claims, c.conflicts, c.sources, panel.Abstain, len(panel.AbstainReasons))
		}
	}
}

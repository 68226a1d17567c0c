package model

// VariantType classifies the variant in the interpretation request
type VariantType string

const (
	VariantSNV   VariantType = "SNV"
	VariantIndel VariantType = "indel"
)

// Valid reports whether the variant type is one of the supported values
func (v VariantType) Valid() bool {
	switch v {
	case VariantSNV, VariantIndel:
		return true
	}
	return false
}

// AssayContext describes the sequencing context of the request.
// "somatic" is accepted as a compatibility alias.
type AssayContext string

const (
	AssayTumorOnly   AssayContext = "tumor-only"
	AssayTumorNormal AssayContext = "tumor-normal"
	AssayPanel       AssayContext = "panel"
	AssayWES         AssayContext = "WES"
	AssaySomatic     AssayContext = "somatic"
)

// Valid reports whether the assay context is one of the supported values
func (a AssayContext) Valid() bool {
	switch a {
	case AssayTumorOnly, AssayTumorNormal, AssayPanel, AssayWES, AssaySomatic:
		return true
	}
	return false
}

// InterpretRequest is the input payload for POST /v1/interpret.
// Empty gene/hgvs strings are accepted; retrieval substitutes sentinels.
type InterpretRequest struct {
	Gene           string       `json:"gene"`
	HGVS           string       `json:"hgvs"`
	VariantType    VariantType  `json:"variant_type"`
	DiseaseContext string       `json:"disease_context"`
	AssayContext   AssayContext `json:"assay_context"`
	UserQuestion   string       `json:"user_question,omitempty"`
}

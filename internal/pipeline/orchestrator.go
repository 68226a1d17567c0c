// Package pipeline drives the four-stage evidence workflow: retrieval,
// extraction, synthesis, and verification. Stages run strictly in order;
// each stage's wall-clock duration lands in the response trace.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/egvia/egvia/internal/model"
	"github.com/egvia/egvia/internal/policy"
	"github.com/egvia/egvia/internal/retrieval"
)

// ErrBlockedLanguage signals that a synthesized draft failed the
// treatment-language gate. This is a contract violation: the stub
// synthesis stage can never legitimately produce it, so seeing it raised
// indicates a defect.
var ErrBlockedLanguage = errors.New("draft contains blocked treatment-like language")

// Orchestrator runs the interpretation pipeline against a configured
// retriever
type Orchestrator struct {
	retriever retrieval.Retriever
	log       *zap.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger disables logging.
func NewOrchestrator(retriever retrieval.Retriever, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{retriever: retriever, log: log}
}

// Run executes the four sequential stages and always produces a complete
// response for a well-formed request. Retrieval failures soften into trace
// failure messages; only a verification contract violation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req *model.InterpretRequest) (*model.InterpretResponse, error) {
	totalStart := time.Now()
	requestID := newRequestID()
	log := o.log.With(zap.String("request_id", requestID))

	// Retrieval: delegated entirely to the retriever interface.
	retrievalStart := time.Now()
	citations := []model.Citation{}
	queries := []string{}
	failures := []string{}
	result, err := o.retriever.Retrieve(ctx, req)
	if err != nil {
		failures = append(failures, fmt.Sprintf("retrieval.interface: unexpected failure: %v", err))
	} else if result != nil {
		if result.Citations != nil {
			citations = result.Citations
		}
		if result.Queries != nil {
			queries = result.Queries
		}
		if result.Failures != nil {
			failures = result.Failures
		}
	}
	retrievalEnd := time.Now()
	log.Debug("retrieval stage complete",
		zap.Int("citations", len(citations)),
		zap.Int("failures", len(failures)),
	)

	// Extraction (stub): placeholder claims only. The claim count stays 0
	// even when the evidence table is non-empty; placeholder claims are not
	// validated claims.
	extractionStart := time.Now()
	evidenceTable := buildPlaceholderEvidenceTable(citations)
	sourceCount := len(citations)
	claimCount := 0
	conflictCount := 0
	extractionEnd := time.Now()

	// Synthesis (stub): deterministic uncertainty-forward draft.
	synthesisStart := time.Now()
	draft := buildStubDraft(sourceCount, claimCount)
	synthesisEnd := time.Now()

	// Verification: the language gate is the one fatal stage.
	verificationStart := time.Now()
	if section, bad := verifyDraftLanguage(draft); bad {
		log.Error("verification rejected draft", zap.String("section", section))
		return nil, fmt.Errorf("verification: draft.%s: %w", section, ErrBlockedLanguage)
	}
	confidencePanel := policy.BuildConfidencePanel(claimCount, conflictCount, sourceCount)
	verificationEnd := time.Now()

	trace := model.Trace{
		RequestID:            requestID,
		RetrievalQueries:     queries,
		SourceCount:          sourceCount,
		ClaimCount:           claimCount,
		ConflictCount:        conflictCount,
		VerificationChecks:   append([]string{}, verificationChecks...),
		VerificationFailures: failures,
		TimingsMS: map[string]int64{
			stageRetrieval:    elapsedMS(retrievalStart, retrievalEnd),
			stageExtraction:   elapsedMS(extractionStart, extractionEnd),
			stageSynthesis:    elapsedMS(synthesisStart, synthesisEnd),
			stageVerification: elapsedMS(verificationStart, verificationEnd),
			stageTotal:        elapsedMS(totalStart, verificationEnd),
		},
	}

	log.Info("interpretation complete",
		zap.Int("source_count", sourceCount),
		zap.Bool("abstain", confidencePanel.Abstain),
		zap.Int64("total_ms", trace.TimingsMS[stageTotal]),
	)

	return &model.InterpretResponse{
		RequestID:       requestID,
		Draft:           draft,
		EvidenceTable:   evidenceTable,
		ConfidencePanel: confidencePanel,
		Trace:           trace,
	}, nil
}

// verifyDraftLanguage checks every draft section against the
// treatment-language filter, returning the first offending section
func verifyDraftLanguage(draft model.Draft) (string, bool) {
	for _, section := range []struct {
		name string
		text string
	}{
		{"summary", draft.Summary},
		{"what_is_known", draft.WhatIsKnown},
		{"conflicting_evidence", draft.ConflictingEvidence},
		{"limitations", draft.Limitations},
		{"uncertainty", draft.Uncertainty},
		{"disclaimer", draft.Disclaimer},
	} {
		if policy.ContainsTreatmentLanguage(section.text) {
			return section.name, true
		}
	}
	return "", false
}

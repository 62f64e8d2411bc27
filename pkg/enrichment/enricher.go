// Package enrichment implements the five analysis stages that augment a
// candidate record: profiling, opportunity scoring, monetization analysis,
// trust scoring, and market validation. Each stage is independently
// runnable, independently skippable, and reports failure as data rather
// than raising past the orchestrator.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/dedup"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/search"
)

// Enricher is one analysis stage. SkipOnDuplicate is a static property: the
// costly, concept-level-stable stages (monetization, market) return true and
// have their payloads copied from the concept's primary record when the
// candidate is a duplicate; record-specific stages always run fresh.
type Enricher interface {
	Name() string
	SkipOnDuplicate() bool
	Run(ctx context.Context, candidate *models.Candidate, sc *StageContext) models.EnrichmentResult
}

// StageContext accumulates stage outputs as the pipeline walks the fixed
// stage order, so later stages can read earlier stages' parsed results.
// Every stage appends; nothing overwrites prior work.
type StageContext struct {
	Outcome *dedup.Outcome

	// Parsed outputs of earlier stages, nil until the stage has succeeded.
	Profile *Profile
	Score   *OpportunityScore

	// Results holds every stage result produced so far, keyed by service.
	Results map[string]models.EnrichmentResult

	// PrimaryResults holds the concept's primary record results, available
	// for skip-copying when the candidate is a duplicate.
	PrimaryResults map[string]models.EnrichmentResult
}

// NewStageContext creates a context for one candidate's pipeline run.
func NewStageContext(outcome *dedup.Outcome) *StageContext {
	return &StageContext{
		Outcome:        outcome,
		Results:        make(map[string]models.EnrichmentResult),
		PrimaryResults: make(map[string]models.EnrichmentResult),
	}
}

// Record stores a stage result in the accumulator.
func (sc *StageContext) Record(result models.EnrichmentResult) {
	sc.Results[result.Service] = result
}

// IsDuplicate reports whether the dedup decision was DUPLICATE.
func (sc *StageContext) IsDuplicate() bool {
	return sc.Outcome != nil && sc.Outcome.IsDuplicate()
}

// succeededResult marshals payload into a SUCCEEDED result.
func succeededResult(service string, payload any, costUSD float64, start time.Time) models.EnrichmentResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		return failedResult(service, err, 0, start)
	}
	return models.EnrichmentResult{
		Service:    service,
		Status:     models.EnrichmentSucceeded,
		Payload:    raw,
		CostUSD:    costUSD,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// failedResult converts an error into a FAILED result with a typed reason.
func failedResult(service string, err error, costUSD float64, start time.Time) models.EnrichmentResult {
	return models.EnrichmentResult{
		Service:    service,
		Status:     models.EnrichmentFailed,
		CostUSD:    costUSD,
		Reason:     failureReason(err),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// skippedResult reports an unmet precondition. Not a failure; cost is zero.
func skippedResult(service, reason string, start time.Time) models.EnrichmentResult {
	return models.EnrichmentResult{
		Service:    service,
		Status:     models.EnrichmentSkipped,
		Reason:     reason,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// failureReason extracts the typed reason from classified LLM and search
// errors, falling back to the raw message.
func failureReason(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return string(llmErr.Type)
	}
	var searchErr *search.Error
	if errors.As(err, &searchErr) {
		return string(searchErr.Type)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return string(llm.ErrorTypeTimeout)
	}
	return err.Error()
}

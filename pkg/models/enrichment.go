package models

import "encoding/json"

// Enrichment service names, in pipeline execution order.
const (
	ServiceProfiler     = "profiler"
	ServiceScorer       = "opportunity_scorer"
	ServiceMonetization = "monetization_analyzer"
	ServiceTrust        = "trust_validator"
	ServiceMarket       = "market_validator"
)

// EnrichmentStatus classifies the outcome of one enrichment stage.
type EnrichmentStatus string

const (
	EnrichmentSucceeded EnrichmentStatus = "succeeded"
	EnrichmentFailed    EnrichmentStatus = "failed"
	EnrichmentSkipped   EnrichmentStatus = "skipped"
)

// EnrichmentResult is the immutable output of one (record, service) pair.
// A FAILED result carries the typed failure reason in Reason; a SKIPPED
// result carries either the unmet precondition or, for duplicates, a note
// that the payload was copied from the concept's primary record.
type EnrichmentResult struct {
	Service    string           `json:"service"`
	Status     EnrichmentStatus `json:"status"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	CostUSD    float64          `json:"cost_usd"`
	Reason     string           `json:"reason,omitempty"`
	CopiedFrom string           `json:"copied_from,omitempty"` // Primary record ID when skip-copied
	DurationMs int64            `json:"duration_ms"`
}

// Succeeded reports whether the stage produced a fresh successful payload.
func (r *EnrichmentResult) Succeeded() bool {
	return r.Status == EnrichmentSucceeded
}

// HasPayload reports whether the result carries usable data, which is true
// for successes and for skip-copied duplicate results.
func (r *EnrichmentResult) HasPayload() bool {
	return len(r.Payload) > 0 && r.Status != EnrichmentFailed
}

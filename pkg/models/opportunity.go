package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is the aggregate produced by one pipeline run over one
// candidate: the candidate fields, the dedup outcome, and every enrichment
// result that was produced. Persisted keyed by the candidate's stable ID;
// re-processing the same ID updates the stored row in place.
type Opportunity struct {
	ID           string    `json:"id"` // Candidate.ID, the upsert key
	Source       string    `json:"source"`
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description"`
	Upvotes      int       `json:"upvotes"`
	CommentCount int       `json:"comment_count"`
	PostedAt     time.Time `json:"posted_at"`

	ConceptID       uuid.UUID `json:"concept_id"`
	IsDuplicate     bool      `json:"is_duplicate"`
	PrimaryRecordID string    `json:"primary_record_id,omitempty"` // Set only for duplicates

	Enrichments []EnrichmentResult `json:"enrichments"`

	TotalCostUSD float64   `json:"total_cost_usd"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Enrichment returns the result for the named service, or nil if the
// pipeline never produced one.
func (o *Opportunity) Enrichment(service string) *EnrichmentResult {
	for i := range o.Enrichments {
		if o.Enrichments[i].Service == service {
			return &o.Enrichments[i]
		}
	}
	return nil
}

// FailedServices lists the services whose stage ended FAILED, for the error
// summary reported alongside a partially enriched record.
func (o *Opportunity) FailedServices() []string {
	var failed []string
	for _, r := range o.Enrichments {
		if r.Status == EnrichmentFailed {
			failed = append(failed, r.Service)
		}
	}
	return failed
}

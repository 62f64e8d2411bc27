package enrichment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/logging"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/retry"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/search"
)

// MarketEvidence is the market-validation payload: a 0-100 score with the
// evidence that produced it.
type MarketEvidence struct {
	ValidationScore float64         `json:"validation_score"` // 0-100
	Confidence      string          `json:"confidence"`       // high, medium, low
	CompetitorCount int             `json:"competitor_count"`
	Competitors     []search.Result `json:"competitors,omitempty"`
	Query           string          `json:"query"`
	Degraded        bool            `json:"degraded,omitempty"` // True when no evidence was gathered
}

const marketResultLimit = 8

// MarketValidator checks whether the market already acknowledges the
// problem by searching for competing products. It is skip-eligible: market
// evidence belongs to the concept, so duplicates copy the primary record's
// payload.
//
// Transient search failures are retried; an exhausted quota or a dead
// endpoint after retries is a FAILED result. When the circuit breaker is
// open the stage does not fail the record: it reports a degraded
// minimum-score success so the batch keeps moving while the endpoint
// recovers.
type MarketValidator struct {
	client  search.Client
	breaker *search.CircuitBreaker
	retry   *retry.Config
	logger  *zap.Logger
}

// NewMarketValidator creates the market-validation stage. A nil client marks
// every record SKIPPED instead of dropping the stage, so the status map stays
// complete when no search endpoint is configured. A nil breaker disables
// circuit breaking; a nil retryCfg uses retry defaults.
func NewMarketValidator(client search.Client, breaker *search.CircuitBreaker, retryCfg *retry.Config, logger *zap.Logger) *MarketValidator {
	return &MarketValidator{
		client:  client,
		breaker: breaker,
		retry:   retryCfg,
		logger:  logger.Named("market"),
	}
}

var _ Enricher = (*MarketValidator)(nil)

// Name implements Enricher.
func (v *MarketValidator) Name() string { return models.ServiceMarket }

// SkipOnDuplicate implements Enricher.
func (v *MarketValidator) SkipOnDuplicate() bool { return true }

// Run implements Enricher.
func (v *MarketValidator) Run(ctx context.Context, candidate *models.Candidate, sc *StageContext) models.EnrichmentResult {
	start := time.Now()

	if v.client == nil {
		return skippedResult(v.Name(), "search capability not configured", start)
	}

	query := v.buildQuery(candidate, sc)

	if v.breaker != nil && !v.breaker.Allow() {
		v.logger.Warn("search circuit open, degrading",
			zap.String("record_id", candidate.ID))
		return succeededResult(v.Name(), degradedEvidence(query), 0, start)
	}

	var results []search.Result
	err := retry.DoIfRetryable(ctx, v.retry, func() error {
		r, searchErr := v.client.Search(ctx, query, marketResultLimit)
		if searchErr != nil {
			return searchErr
		}
		results = r
		return nil
	})
	if err != nil {
		if v.breaker != nil {
			v.breaker.RecordFailure()
		}
		v.logger.Warn("market search failed",
			zap.String("record_id", candidate.ID),
			zap.String("query", query),
			zap.String("error", logging.SanitizeError(err)))
		return failedResult(v.Name(), err, 0, start)
	}
	if v.breaker != nil {
		v.breaker.RecordSuccess()
	}

	return succeededResult(v.Name(), scoreEvidence(query, results), 0, start)
}

// buildQuery prefers the profiler's structured identity; without one it
// falls back to the normalized concept text.
func (v *MarketValidator) buildQuery(candidate *models.Candidate, sc *StageContext) string {
	if sc.Profile != nil && sc.Profile.Name != "" {
		if sc.Profile.Category != "" && sc.Profile.Category != "other" {
			return fmt.Sprintf("%s %s app", sc.Profile.Name, sc.Profile.Category)
		}
		return fmt.Sprintf("%s app", sc.Profile.Name)
	}
	if sc.Outcome != nil && sc.Outcome.Normalized != "" {
		return sc.Outcome.Normalized
	}
	return strings.TrimSpace(candidate.Text())
}

// scoreEvidence converts search results into a validation score. Some
// competition validates the problem is real; a crowded field lowers the
// score again.
func scoreEvidence(query string, results []search.Result) *MarketEvidence {
	evidence := &MarketEvidence{
		Query:           query,
		CompetitorCount: len(results),
		Competitors:     results,
	}

	switch n := len(results); {
	case n == 0:
		// No evidence either way.
		evidence.ValidationScore = 25
		evidence.Confidence = "low"
		evidence.Degraded = true
	case n <= 3:
		evidence.ValidationScore = round1(50 + float64(n)*10)
		evidence.Confidence = "medium"
	case n <= 6:
		evidence.ValidationScore = 85
		evidence.Confidence = "high"
	default:
		// Saturated market: validated demand, hard entry.
		evidence.ValidationScore = round1(math.Max(40, 85-float64(n-6)*5))
		evidence.Confidence = "high"
	}

	return evidence
}

// degradedEvidence is the minimum-score payload used when the circuit is
// open and no search was attempted.
func degradedEvidence(query string) *MarketEvidence {
	return &MarketEvidence{
		ValidationScore: 10,
		Confidence:      "low",
		Query:           query,
		Degraded:        true,
	}
}

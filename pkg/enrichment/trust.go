package enrichment

import (
	"context"
	"math"
	"time"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// TrustSignal is a credibility score computed from the author's engagement
// history. It is metadata only: nothing in the pipeline reads it to decide
// whether a record proceeds or is stored.
type TrustSignal struct {
	Score           float64  `json:"score"` // 0-100
	AccountAgeDays  int      `json:"account_age_days"`
	AuthorKarma     int      `json:"author_karma"`
	EngagementRatio float64  `json:"engagement_ratio"` // Comments per upvote
	Flags           []string `json:"flags,omitempty"`
}

// TrustValidator computes corroborating credibility from
// engagement-history signals. Rule-based, zero cost, runs fresh for every
// record including duplicates since the signals are per-author.
//
// Its output must never gate acceptance or persistence; it is attached
// after those decisions are final.
type TrustValidator struct{}

// NewTrustValidator creates the trust stage.
func NewTrustValidator() *TrustValidator {
	return &TrustValidator{}
}

var _ Enricher = (*TrustValidator)(nil)

// Name implements Enricher.
func (t *TrustValidator) Name() string { return models.ServiceTrust }

// SkipOnDuplicate implements Enricher. Trust is about the submitting
// author, not the concept, so duplicates get their own score.
func (t *TrustValidator) SkipOnDuplicate() bool { return false }

// Run implements Enricher.
func (t *TrustValidator) Run(_ context.Context, candidate *models.Candidate, _ *StageContext) models.EnrichmentResult {
	start := time.Now()

	signal := &TrustSignal{
		AccountAgeDays: candidate.AuthorAgeDays,
		AuthorKarma:    candidate.AuthorKarma,
	}
	if candidate.Upvotes > 0 {
		signal.EngagementRatio = round1(float64(candidate.CommentCount) / float64(candidate.Upvotes))
	}

	// Account age: up to 40 points, saturating at two years.
	ageScore := math.Min(40, float64(candidate.AuthorAgeDays)/730*40)
	// Karma: up to 40 points, saturating at 10k.
	karmaScore := math.Min(40, float64(candidate.AuthorKarma)/10000*40)
	// Discussion: up to 20 points when a post drew real conversation.
	discussionScore := math.Min(20, float64(candidate.CommentCount)*2)

	signal.Score = round1(ageScore + karmaScore + discussionScore)

	if candidate.AuthorAgeDays < 30 {
		signal.Flags = append(signal.Flags, "new_account")
	}
	if candidate.AuthorKarma < 50 {
		signal.Flags = append(signal.Flags, "low_karma")
	}
	if candidate.Upvotes > 50 && candidate.CommentCount == 0 {
		signal.Flags = append(signal.Flags, "no_discussion")
	}

	return succeededResult(t.Name(), signal, 0, start)
}

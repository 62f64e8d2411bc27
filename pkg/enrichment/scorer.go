package enrichment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// OpportunityScore is the deterministic 0-100 composite with its
// per-dimension sub-scores.
type OpportunityScore struct {
	OverallScore   float64 `json:"overall_score"`
	PainSeverity   float64 `json:"pain_severity"`
	Engagement     float64 `json:"engagement"`
	Specificity    float64 `json:"specificity"`
	ProfileClarity float64 `json:"profile_clarity"`
}

// Fixed dimension weights; they must sum to 1.
const (
	weightPain        = 0.35
	weightEngagement  = 0.25
	weightSpecificity = 0.20
	weightClarity     = 0.20
)

// painMarkers are phrases that signal felt pain rather than idle musing.
var painMarkers = []string{
	"waste", "hate", "frustrat", "annoying", "tedious", "manual",
	"every day", "every week", "hours", "expensive", "impossible",
	"struggle", "painful", "fed up", "sick of",
}

// OpportunityScorer computes the composite score from engagement signals,
// text heuristics, and the profiler's output. Rule-based: no external
// calls, zero cost, same input always yields the same score.
type OpportunityScorer struct{}

// NewOpportunityScorer creates the scoring stage.
func NewOpportunityScorer() *OpportunityScorer {
	return &OpportunityScorer{}
}

var _ Enricher = (*OpportunityScorer)(nil)

// Name implements Enricher.
func (s *OpportunityScorer) Name() string { return models.ServiceScorer }

// SkipOnDuplicate implements Enricher. Scoring is free, and engagement
// signals differ per record, so duplicates are scored fresh.
func (s *OpportunityScorer) SkipOnDuplicate() bool { return false }

// Run implements Enricher.
func (s *OpportunityScorer) Run(_ context.Context, candidate *models.Candidate, sc *StageContext) models.EnrichmentResult {
	start := time.Now()

	score := &OpportunityScore{
		PainSeverity:   painSeverity(candidate.Description),
		Engagement:     engagementScore(candidate),
		Specificity:    specificity(candidate.Description),
		ProfileClarity: profileClarity(sc.Profile),
	}
	score.OverallScore = round1(
		score.PainSeverity*weightPain +
			score.Engagement*weightEngagement +
			score.Specificity*weightSpecificity +
			score.ProfileClarity*weightClarity)

	sc.Score = score
	return succeededResult(s.Name(), score, 0, start)
}

func painSeverity(description string) float64 {
	lower := strings.ToLower(description)
	hits := 0
	for _, marker := range painMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return round1(math.Min(100, float64(hits)*25))
}

func engagementScore(candidate *models.Candidate) float64 {
	return round1(math.Min(100, float64(candidate.EngagementScore())*2))
}

func specificity(description string) float64 {
	return round1(math.Min(100, float64(len(description))/4))
}

func profileClarity(profile *Profile) float64 {
	if profile == nil {
		return 0
	}
	score := 40.0 // A parseable profile at all is a signal
	if profile.Category != "" && profile.Category != "other" {
		score += 20
	}
	if profile.TargetUser != "" {
		score += 20
	}
	if profile.ProblemSummary != "" {
		score += 20
	}
	return score
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

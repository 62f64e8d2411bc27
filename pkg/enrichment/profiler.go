package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/jsonutil"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// Profile is the structured identity of the underlying idea.
type Profile struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	TargetUser     string   `json:"target_user"`
	ProblemSummary string   `json:"problem_summary"`
	Tags           []string `json:"tags,omitempty"`
}

const profilerSystemPrompt = `You analyze short problem descriptions posted online and extract the business idea behind them. Respond with JSON only, no prose: {"name": short product name, "category": one of health, finance, productivity, education, social, commerce, developer-tools, other, "target_user": who has this problem, "problem_summary": one sentence, "tags": up to 5 keywords}.`

// Profiler produces a structured identity for the idea behind a candidate's
// text. Later stages (monetization, market validation) read its output.
type Profiler struct {
	client     llm.Client
	minTextLen int
	logger     *zap.Logger
}

// NewProfiler creates the profiling stage. Texts shorter than minTextLen
// are SKIPPED rather than sent for analysis.
func NewProfiler(client llm.Client, minTextLen int, logger *zap.Logger) *Profiler {
	return &Profiler{
		client:     client,
		minTextLen: minTextLen,
		logger:     logger.Named("profiler"),
	}
}

var _ Enricher = (*Profiler)(nil)

// Name implements Enricher.
func (p *Profiler) Name() string { return models.ServiceProfiler }

// SkipOnDuplicate implements Enricher. The profile names the record's idea,
// and duplicates share their concept's idea, but the profile is cheap and
// feeds the scorer, so it runs fresh.
func (p *Profiler) SkipOnDuplicate() bool { return false }

// Run implements Enricher.
func (p *Profiler) Run(ctx context.Context, candidate *models.Candidate, sc *StageContext) models.EnrichmentResult {
	start := time.Now()

	if len(candidate.Description) < p.minTextLen {
		return skippedResult(p.Name(),
			fmt.Sprintf("description shorter than %d characters", p.minTextLen), start)
	}

	prompt := fmt.Sprintf("Title: %s\n\nDescription: %s", candidate.Title, candidate.Description)
	generated, err := p.client.Generate(ctx, prompt, profilerSystemPrompt, 0.2)
	if err != nil {
		p.logger.Warn("profile generation failed",
			zap.String("record_id", candidate.ID),
			zap.Error(err))
		return failedResult(p.Name(), err, 0, start)
	}

	profile, err := parseProfile(generated.Content)
	if err != nil {
		p.logger.Warn("profile response unparseable",
			zap.String("record_id", candidate.ID),
			zap.Error(err))
		return failedResult(p.Name(), err, generated.CostUSD, start)
	}

	sc.Profile = profile
	return succeededResult(p.Name(), profile, generated.CostUSD, start)
}

func parseProfile(response string) (*Profile, error) {
	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	// Field-by-field flexible decoding: models sometimes return numbers or
	// scalars where strings and arrays were asked for.
	var wire struct {
		Name           json.RawMessage `json:"name"`
		Category       json.RawMessage `json:"category"`
		TargetUser     json.RawMessage `json:"target_user"`
		ProblemSummary json.RawMessage `json:"problem_summary"`
		Tags           json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, llm.NewError(llm.ErrorTypeMalformed, "decode profile", false, err)
	}

	profile := &Profile{
		Name:           jsonutil.FlexibleString(wire.Name),
		Category:       jsonutil.FlexibleString(wire.Category),
		TargetUser:     jsonutil.FlexibleString(wire.TargetUser),
		ProblemSummary: jsonutil.FlexibleString(wire.ProblemSummary),
		Tags:           jsonutil.FlexibleStringSlice(wire.Tags),
	}
	if profile.Name == "" {
		return nil, llm.NewError(llm.ErrorTypeMalformed, "profile missing name", false, nil)
	}
	return profile, nil
}

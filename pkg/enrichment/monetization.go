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

// Monetization estimates willingness-to-pay and revenue signals for the
// idea behind a record.
type Monetization struct {
	WillingnessToPay   float64  `json:"willingness_to_pay"` // 0-100
	SuggestedPriceUSD  float64  `json:"suggested_price_usd"`
	RevenueModel       string   `json:"revenue_model"`
	PayingCustomerHint string   `json:"paying_customer_hint,omitempty"`
	Signals            []string `json:"signals,omitempty"`
}

const monetizationSystemPrompt = `You estimate monetization potential for a business idea from a user problem report. Respond with JSON only: {"willingness_to_pay": 0-100, "suggested_price_usd": monthly price in USD, "revenue_model": one of subscription, one-time, usage-based, ads, marketplace, "paying_customer_hint": who would pay, "signals": up to 5 observed signals}.`

// MonetizationAnalyzer is the most expensive stage. It is skip-eligible:
// monetization is a property of the concept, so duplicates copy the primary
// record's payload instead of paying for a fresh call.
type MonetizationAnalyzer struct {
	client        llm.Client
	minEngagement int
	logger        *zap.Logger
}

// NewMonetizationAnalyzer creates the monetization stage. Records with
// engagement below minEngagement are SKIPPED; there is no point paying to
// analyze a post nobody reacted to.
func NewMonetizationAnalyzer(client llm.Client, minEngagement int, logger *zap.Logger) *MonetizationAnalyzer {
	return &MonetizationAnalyzer{
		client:        client,
		minEngagement: minEngagement,
		logger:        logger.Named("monetization"),
	}
}

var _ Enricher = (*MonetizationAnalyzer)(nil)

// Name implements Enricher.
func (m *MonetizationAnalyzer) Name() string { return models.ServiceMonetization }

// SkipOnDuplicate implements Enricher.
func (m *MonetizationAnalyzer) SkipOnDuplicate() bool { return true }

// Run implements Enricher.
func (m *MonetizationAnalyzer) Run(ctx context.Context, candidate *models.Candidate, sc *StageContext) models.EnrichmentResult {
	start := time.Now()

	if candidate.EngagementScore() < m.minEngagement {
		return skippedResult(m.Name(),
			fmt.Sprintf("engagement %d below threshold %d", candidate.EngagementScore(), m.minEngagement), start)
	}

	prompt := fmt.Sprintf("Problem report:\n%s", candidate.Description)
	if sc.Profile != nil {
		prompt = fmt.Sprintf("Idea: %s (category: %s, target user: %s)\n\n%s",
			sc.Profile.Name, sc.Profile.Category, sc.Profile.TargetUser, prompt)
	}

	generated, err := m.client.Generate(ctx, prompt, monetizationSystemPrompt, 0.3)
	if err != nil {
		m.logger.Warn("monetization analysis failed",
			zap.String("record_id", candidate.ID),
			zap.Error(err))
		return failedResult(m.Name(), err, 0, start)
	}

	monetization, err := parseMonetization(generated.Content)
	if err != nil {
		m.logger.Warn("monetization response unparseable",
			zap.String("record_id", candidate.ID),
			zap.Error(err))
		return failedResult(m.Name(), err, generated.CostUSD, start)
	}

	return succeededResult(m.Name(), monetization, generated.CostUSD, start)
}

func parseMonetization(response string) (*Monetization, error) {
	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var wire struct {
		WillingnessToPay   json.RawMessage `json:"willingness_to_pay"`
		SuggestedPriceUSD  json.RawMessage `json:"suggested_price_usd"`
		RevenueModel       json.RawMessage `json:"revenue_model"`
		PayingCustomerHint json.RawMessage `json:"paying_customer_hint"`
		Signals            json.RawMessage `json:"signals"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, llm.NewError(llm.ErrorTypeMalformed, "decode monetization", false, err)
	}

	return &Monetization{
		WillingnessToPay:   jsonutil.FlexibleFloat(wire.WillingnessToPay),
		SuggestedPriceUSD:  jsonutil.FlexibleFloat(wire.SuggestedPriceUSD),
		RevenueModel:       jsonutil.FlexibleString(wire.RevenueModel),
		PayingCustomerHint: jsonutil.FlexibleString(wire.PayingCustomerHint),
		Signals:            jsonutil.FlexibleStringSlice(wire.Signals),
	}, nil
}

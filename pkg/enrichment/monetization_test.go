package enrichment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

func TestMonetizationAnalyzerRun(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(_ context.Context, _, _ string, _ float64) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"willingness_to_pay": 70, "suggested_price_usd": "$15", "revenue_model": "subscription", "paying_customer_hint": "small agencies", "signals": ["recurring pain", "billable time lost"]}`,
			CostUSD: 0.01,
		}, nil
	}
	analyzer := NewMonetizationAnalyzer(mock, 5, zap.NewNop())

	result := analyzer.Run(context.Background(), testCandidate(), uniqueContext())

	require.Equal(t, models.EnrichmentSucceeded, result.Status)
	assert.Equal(t, 0.01, result.CostUSD)

	var monetization Monetization
	require.NoError(t, json.Unmarshal(result.Payload, &monetization))
	assert.Equal(t, 70.0, monetization.WillingnessToPay)
	assert.Equal(t, 15.0, monetization.SuggestedPriceUSD, "dollar-decorated price is parsed")
	assert.Equal(t, "subscription", monetization.RevenueModel)
}

func TestMonetizationAnalyzerPromptIncludesProfile(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(_ context.Context, prompt, _ string, _ float64) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{Content: `{"willingness_to_pay": 50, "revenue_model": "one-time"}`}, nil
	}
	analyzer := NewMonetizationAnalyzer(mock, 5, zap.NewNop())

	sc := uniqueContext()
	sc.Profile = &Profile{Name: "InvoiceChaser", Category: "finance", TargetUser: "freelancers"}
	analyzer.Run(context.Background(), testCandidate(), sc)

	assert.Contains(t, mock.LastPrompt, "InvoiceChaser")
	assert.Contains(t, mock.LastPrompt, "finance")
}

func TestMonetizationAnalyzerSkipsLowEngagement(t *testing.T) {
	mock := llm.NewMockClient()
	analyzer := NewMonetizationAnalyzer(mock, 5, zap.NewNop())

	candidate := testCandidate()
	candidate.Upvotes = 1
	candidate.CommentCount = 0
	result := analyzer.Run(context.Background(), candidate, uniqueContext())

	assert.Equal(t, models.EnrichmentSkipped, result.Status)
	assert.Contains(t, result.Reason, "below threshold")
	assert.Zero(t, mock.GenerateCalls)
}

func TestMonetizationAnalyzerFailsOnQuota(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(_ context.Context, _, _ string, _ float64) (*llm.GenerateResult, error) {
		return nil, llm.NewError(llm.ErrorTypeQuota, "quota exceeded", false, nil)
	}
	analyzer := NewMonetizationAnalyzer(mock, 5, zap.NewNop())

	result := analyzer.Run(context.Background(), testCandidate(), uniqueContext())
	assert.Equal(t, models.EnrichmentFailed, result.Status)
	assert.Equal(t, string(llm.ErrorTypeQuota), result.Reason)
}

func TestMonetizationAnalyzerIsSkipEligible(t *testing.T) {
	analyzer := NewMonetizationAnalyzer(llm.NewMockClient(), 5, zap.NewNop())
	assert.True(t, analyzer.SkipOnDuplicate())
}

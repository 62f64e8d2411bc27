package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/testhelpers"
)

func testConcept(fp string) *models.BusinessConcept {
	return &models.BusinessConcept{
		Name:            "Track Client Invoices",
		Fingerprint:     fp,
		PrimaryRecordID: "rec-1",
	}
}

func testOpportunity(id string, conceptID uuid.UUID) *models.Opportunity {
	profile, _ := json.Marshal(map[string]any{"name": "InvoiceChaser", "category": "finance"})
	score, _ := json.Marshal(map[string]any{"overall_score": 72.5})

	return &models.Opportunity{
		ID:          id,
		Source:      "reddit:r/somebusiness",
		Title:       "Invoices are a mess",
		Description: "Chasing unpaid invoices by hand.",
		Upvotes:     12,
		ConceptID:   conceptID,
		PostedAt:    time.Now().UTC().Truncate(time.Millisecond),
		Enrichments: []models.EnrichmentResult{
			{Service: models.ServiceProfiler, Status: models.EnrichmentSucceeded, Payload: profile, CostUSD: 0.002, DurationMs: 40},
			{Service: models.ServiceScorer, Status: models.EnrichmentSucceeded, Payload: score, DurationMs: 1},
			{Service: models.ServiceMonetization, Status: models.EnrichmentFailed, Reason: "quota_exceeded", DurationMs: 120},
		},
		TotalCostUSD: 0.002,
		ProcessedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestConceptRepositoryCreateAndGet(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	repo := NewConceptRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-create")
	require.NoError(t, repo.Create(ctx, concept))
	assert.NotEqual(t, uuid.Nil, concept.ID)
	assert.Equal(t, 1, concept.SubmissionCount)

	got, err := repo.GetByFingerprint(ctx, "fp-create")
	require.NoError(t, err)
	assert.Equal(t, concept.ID, got.ID)
	assert.Equal(t, "rec-1", got.PrimaryRecordID)

	_, err = repo.GetByFingerprint(ctx, "fp-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConceptRepositoryFingerprintConstraint(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	repo := NewConceptRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testConcept("fp-race")))

	loser := testConcept("fp-race")
	loser.PrimaryRecordID = "rec-2"
	err := repo.Create(ctx, loser)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateFingerprint)
}

func TestConceptRepositoryIncrementSubmissions(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	repo := NewConceptRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-incr")
	require.NoError(t, repo.Create(ctx, concept))

	require.NoError(t, repo.IncrementSubmissions(ctx, concept.ID))
	require.NoError(t, repo.IncrementSubmissions(ctx, concept.ID))

	got, err := repo.GetByFingerprint(ctx, "fp-incr")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SubmissionCount)
	assert.True(t, got.LastUpdatedAt.After(got.FirstSeenAt) || got.LastUpdatedAt.Equal(got.FirstSeenAt))

	assert.ErrorIs(t, repo.IncrementSubmissions(ctx, uuid.New()), apperrors.ErrNotFound)
}

func TestConceptRepositoryMarkBeforeAndAfterStore(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	concepts := NewConceptRepository(db.DB)
	opportunities := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-mark")
	require.NoError(t, concepts.Create(ctx, concept))

	// No stored row yet: marking reports false, not an error.
	ok, err := concepts.MarkDuplicate(ctx, "rec-2", concept.ID, "rec-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, opportunities.Upsert(ctx, testOpportunity("rec-2", concept.ID)))

	ok, err = concepts.MarkDuplicate(ctx, "rec-2", concept.ID, "rec-1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := opportunities.GetByID(ctx, "rec-2")
	require.NoError(t, err)
	assert.True(t, got.IsDuplicate)
	assert.Equal(t, "rec-1", got.PrimaryRecordID)

	ok, err = concepts.MarkUnique(ctx, "rec-2", concept.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = opportunities.GetByID(ctx, "rec-2")
	require.NoError(t, err)
	assert.False(t, got.IsDuplicate)
	assert.Empty(t, got.PrimaryRecordID)
}

func TestOpportunityRepositoryUpsertRoundTrip(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	concepts := NewConceptRepository(db.DB)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-roundtrip")
	require.NoError(t, concepts.Create(ctx, concept))

	opp := testOpportunity("rec-1", concept.ID)
	require.NoError(t, repo.Upsert(ctx, opp))

	got, err := repo.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, opp.Source, got.Source)
	assert.Equal(t, concept.ID, got.ConceptID)
	require.Len(t, got.Enrichments, 3)

	// Results come back in pipeline order with payloads and metadata intact.
	assert.Equal(t, models.ServiceProfiler, got.Enrichments[0].Service)
	assert.JSONEq(t, string(opp.Enrichments[0].Payload), string(got.Enrichments[0].Payload))
	assert.Equal(t, 0.002, got.Enrichments[0].CostUSD)

	failed := got.Enrichment(models.ServiceMonetization)
	require.NotNil(t, failed)
	assert.Equal(t, models.EnrichmentFailed, failed.Status)
	assert.Equal(t, "quota_exceeded", failed.Reason)
	assert.Empty(t, failed.Payload)

	assert.Nil(t, got.Enrichment(models.ServiceMarket), "never-run services stay absent")

	_, err = repo.GetByID(ctx, "rec-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOpportunityRepositoryUpsertMerges(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	concepts := NewConceptRepository(db.DB)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-merge")
	require.NoError(t, concepts.Create(ctx, concept))

	first := testOpportunity("rec-1", concept.ID)
	require.NoError(t, repo.Upsert(ctx, first))

	// Reprocessing produced a successful monetization this time.
	monetization, _ := json.Marshal(map[string]any{"willingness_to_pay": 70})
	second := testOpportunity("rec-1", concept.ID)
	second.Upvotes = 40
	second.Enrichments[2] = models.EnrichmentResult{
		Service: models.ServiceMonetization,
		Status:  models.EnrichmentSucceeded,
		Payload: monetization,
		CostUSD: 0.01,
	}
	second.TotalCostUSD = 0.012
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Upvotes)
	assert.Equal(t, models.EnrichmentSucceeded, got.Enrichment(models.ServiceMonetization).Status)
	assert.InDelta(t, 0.012, got.TotalCostUSD, 1e-9)

	var count int
	require.NoError(t, db.DB.QueryRow(ctx,
		"SELECT count(*) FROM opportunities WHERE id = 'rec-1'").Scan(&count))
	assert.Equal(t, 1, count, "upsert keyed by ID keeps one row")
}

func TestOpportunityRepositoryListByConcept(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	concepts := NewConceptRepository(db.DB)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-list")
	require.NoError(t, concepts.Create(ctx, concept))
	other := testConcept("fp-other")
	require.NoError(t, concepts.Create(ctx, other))

	for i, conceptID := range []uuid.UUID{concept.ID, concept.ID, other.ID} {
		opp := testOpportunity(fmt.Sprintf("rec-%d", i), conceptID)
		opp.ProcessedAt = opp.ProcessedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Upsert(ctx, opp))
	}

	listed, err := repo.ListByConcept(ctx, concept.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "rec-0", listed[0].ID, "ordered by processed_at")
	assert.Equal(t, "rec-1", listed[1].ID)
}

func TestOpportunityRepositoryTopByScore(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	db.TruncateAll(t)
	concepts := NewConceptRepository(db.DB)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	concept := testConcept("fp-top")
	require.NoError(t, concepts.Create(ctx, concept))

	for i, overall := range []float64{42.0, 88.5, 60.1} {
		opp := testOpportunity(fmt.Sprintf("rec-%d", i), concept.ID)
		score, _ := json.Marshal(map[string]any{"overall_score": overall})
		opp.Enrichments[1].Payload = score
		require.NoError(t, repo.Upsert(ctx, opp))
	}

	top, err := repo.TopByScore(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "rec-1", top[0].ID)
	assert.Equal(t, "rec-2", top[1].ID)
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/database"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// psql builds queries with Postgres $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// serviceColumns maps enrichment service names to their payload columns.
// Adding a service means adding a column here and in a migration; existing
// rows read back as null payloads, never as errors.
var serviceColumns = map[string]string{
	models.ServiceProfiler:     "profile",
	models.ServiceScorer:       "opportunity_score",
	models.ServiceMonetization: "monetization",
	models.ServiceTrust:        "trust",
	models.ServiceMarket:       "market",
}

// enrichmentMeta is the per-service entry stored in the enrichment_status
// JSONB column: everything about a result except its payload.
type enrichmentMeta struct {
	Status     models.EnrichmentStatus `json:"status"`
	CostUSD    float64                 `json:"cost_usd"`
	Reason     string                  `json:"reason,omitempty"`
	CopiedFrom string                  `json:"copied_from,omitempty"`
	DurationMs int64                   `json:"duration_ms"`
}

// OpportunityRepository persists aggregated opportunity records. Upsert uses
// merge semantics keyed by the record's stable identifier, so re-processing
// the same record updates its row in place.
type OpportunityRepository interface {
	Upsert(ctx context.Context, opp *models.Opportunity) error
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
	ListByConcept(ctx context.Context, conceptID uuid.UUID) ([]*models.Opportunity, error)
	TopByScore(ctx context.Context, limit int) ([]*models.Opportunity, error)
}

type opportunityRepository struct {
	db *database.DB
}

// NewOpportunityRepository creates a Postgres-backed OpportunityRepository.
func NewOpportunityRepository(db *database.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

var _ OpportunityRepository = (*opportunityRepository)(nil)

func (r *opportunityRepository) Upsert(ctx context.Context, opp *models.Opportunity) error {
	payloads := make(map[string]any, len(serviceColumns))
	status := make(map[string]enrichmentMeta, len(opp.Enrichments))
	for _, res := range opp.Enrichments {
		status[res.Service] = enrichmentMeta{
			Status:     res.Status,
			CostUSD:    res.CostUSD,
			Reason:     res.Reason,
			CopiedFrom: res.CopiedFrom,
			DurationMs: res.DurationMs,
		}
		col, ok := serviceColumns[res.Service]
		if !ok {
			continue
		}
		if len(res.Payload) > 0 {
			payloads[col] = []byte(res.Payload)
		} else {
			payloads[col] = nil
		}
	}

	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal enrichment status: %w", err)
	}

	var conceptID any
	if opp.ConceptID != uuid.Nil {
		conceptID = opp.ConceptID
	}
	var primaryID any
	if opp.PrimaryRecordID != "" {
		primaryID = opp.PrimaryRecordID
	}

	builder := psql.Insert("opportunities").
		Columns("id", "source", "title", "description", "upvotes", "comment_count",
			"posted_at", "concept_id", "is_duplicate", "primary_record_id",
			"profile", "opportunity_score", "monetization", "trust", "market",
			"enrichment_status", "total_cost_usd", "processed_at").
		Values(opp.ID, opp.Source, opp.Title, opp.Description, opp.Upvotes, opp.CommentCount,
			opp.PostedAt, conceptID, opp.IsDuplicate, primaryID,
			payloads["profile"], payloads["opportunity_score"], payloads["monetization"],
			payloads["trust"], payloads["market"],
			statusJSON, opp.TotalCostUSD, opp.ProcessedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			upvotes = EXCLUDED.upvotes,
			comment_count = EXCLUDED.comment_count,
			posted_at = EXCLUDED.posted_at,
			concept_id = EXCLUDED.concept_id,
			is_duplicate = EXCLUDED.is_duplicate,
			primary_record_id = EXCLUDED.primary_record_id,
			profile = EXCLUDED.profile,
			opportunity_score = EXCLUDED.opportunity_score,
			monetization = EXCLUDED.monetization,
			trust = EXCLUDED.trust,
			market = EXCLUDED.market,
			enrichment_status = EXCLUDED.enrichment_status,
			total_cost_usd = EXCLUDED.total_cost_usd,
			processed_at = EXCLUDED.processed_at,
			updated_at = now()`)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert opportunity: %w", err)
	}
	return nil
}

func (r *opportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	query, args, err := r.selectBuilder().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	opp, err := scanOpportunity(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return opp, nil
}

func (r *opportunityRepository) ListByConcept(ctx context.Context, conceptID uuid.UUID) ([]*models.Opportunity, error) {
	query, args, err := r.selectBuilder().
		Where(sq.Eq{"concept_id": conceptID}).
		OrderBy("processed_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return r.queryMany(ctx, query, args)
}

func (r *opportunityRepository) TopByScore(ctx context.Context, limit int) ([]*models.Opportunity, error) {
	query, args, err := r.selectBuilder().
		Where("opportunity_score IS NOT NULL").
		OrderBy("(opportunity_score->>'overall_score')::numeric DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return r.queryMany(ctx, query, args)
}

func (r *opportunityRepository) selectBuilder() sq.SelectBuilder {
	return psql.Select("id", "source", "title", "description", "upvotes", "comment_count",
		"posted_at", "concept_id", "is_duplicate", "primary_record_id",
		"profile", "opportunity_score", "monetization", "trust", "market",
		"enrichment_status", "total_cost_usd", "processed_at").
		From("opportunities")
}

func (r *opportunityRepository) queryMany(ctx context.Context, query string, args []any) ([]*models.Opportunity, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var (
		opp        models.Opportunity
		conceptID  *uuid.UUID
		primaryID  *string
		payloads   = make([][]byte, 5)
		statusJSON []byte
	)

	err := row.Scan(
		&opp.ID, &opp.Source, &opp.Title, &opp.Description, &opp.Upvotes, &opp.CommentCount,
		&opp.PostedAt, &conceptID, &opp.IsDuplicate, &primaryID,
		&payloads[0], &payloads[1], &payloads[2], &payloads[3], &payloads[4],
		&statusJSON, &opp.TotalCostUSD, &opp.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if conceptID != nil {
		opp.ConceptID = *conceptID
	}
	if primaryID != nil {
		opp.PrimaryRecordID = *primaryID
	}

	status := make(map[string]enrichmentMeta)
	if len(statusJSON) > 0 {
		if err := json.Unmarshal(statusJSON, &status); err != nil {
			return nil, fmt.Errorf("decode enrichment status: %w", err)
		}
	}

	payloadByService := map[string][]byte{
		models.ServiceProfiler:     payloads[0],
		models.ServiceScorer:       payloads[1],
		models.ServiceMonetization: payloads[2],
		models.ServiceTrust:        payloads[3],
		models.ServiceMarket:       payloads[4],
	}

	// Rebuild results in pipeline order so round-tripped records look the
	// same as freshly processed ones.
	for _, service := range []string{
		models.ServiceProfiler, models.ServiceScorer, models.ServiceMonetization,
		models.ServiceTrust, models.ServiceMarket,
	} {
		meta, ok := status[service]
		if !ok {
			continue
		}
		result := models.EnrichmentResult{
			Service:    service,
			Status:     meta.Status,
			CostUSD:    meta.CostUSD,
			Reason:     meta.Reason,
			CopiedFrom: meta.CopiedFrom,
			DurationMs: meta.DurationMs,
		}
		if payload := payloadByService[service]; len(payload) > 0 {
			result.Payload = json.RawMessage(payload)
		}
		opp.Enrichments = append(opp.Enrichments, result)
	}

	return &opp, nil
}

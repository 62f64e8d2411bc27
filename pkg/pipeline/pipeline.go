// Package pipeline orchestrates one candidate's walk through dedup,
// enrichment, aggregation, and storage, and fans a batch of candidates out
// over a bounded worker pool. A stage's failure becomes data on the record;
// it never aborts the other stages or the rest of the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/dedup"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/enrichment"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/repositories"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/retry"
)

// Config bounds pipeline execution.
type Config struct {
	// RecordTimeout bounds one candidate's whole run. Stages that have not
	// run when it expires are recorded FAILED with a timeout reason.
	RecordTimeout time.Duration
	// StageTimeout bounds a single stage's network call.
	StageTimeout time.Duration
	// BatchWorkers is the bounded worker count for ProcessBatch.
	BatchWorkers int
}

// Pipeline runs candidates through the fixed stage order: dedup decision,
// then profiler, scorer, monetization, trust, and market validation, then
// one aggregate upsert.
type Pipeline struct {
	dedup         *dedup.Coordinator
	enrichers     []enrichment.Enricher
	opportunities repositories.OpportunityRepository
	storeRetry    *retry.Config
	cfg           Config
	logger        *zap.Logger
}

// New creates a pipeline. The enrichers slice defines stage order; a nil
// storeRetry uses retry defaults for the final upsert.
func New(
	coordinator *dedup.Coordinator,
	enrichers []enrichment.Enricher,
	opportunities repositories.OpportunityRepository,
	storeRetry *retry.Config,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 2 * time.Minute
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 30 * time.Second
	}
	if cfg.BatchWorkers < 1 {
		cfg.BatchWorkers = DefaultWorkerPoolConfig().MaxConcurrent
	}
	return &Pipeline{
		dedup:         coordinator,
		enrichers:     enrichers,
		opportunities: opportunities,
		storeRetry:    storeRetry,
		cfg:           cfg,
		logger:        logger.Named("pipeline"),
	}
}

// Process runs one candidate end to end and returns the stored aggregate.
//
// A dedup error (including apperrors.ErrEmptyConcept for unusable text)
// rejects the record before any enrichment. Enrichment failures do not: the
// aggregate is stored with whatever succeeded, and the failures ride along
// as FAILED results. A storage failure after retries returns the aggregate
// together with the error so the caller can report and retry the batch.
func (p *Pipeline) Process(ctx context.Context, candidate *models.Candidate) (*models.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RecordTimeout)
	defer cancel()

	outcome, err := p.dedup.Decide(ctx, candidate)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyConcept) {
			p.logger.Warn("record rejected, no usable concept text",
				zap.String("record_id", candidate.ID))
		}
		return nil, fmt.Errorf("dedup %s: %w", candidate.ID, err)
	}

	sc := enrichment.NewStageContext(outcome)
	if outcome.IsDuplicate() {
		p.loadPrimaryResults(ctx, outcome, sc)
	}

	for _, enricher := range p.enrichers {
		sc.Record(p.runStage(ctx, enricher, candidate, sc))
	}

	opp := p.aggregate(candidate, outcome, sc)

	if err := retry.DoIfRetryable(ctx, p.storeRetry, func() error {
		return p.opportunities.Upsert(ctx, opp)
	}); err != nil {
		p.logger.Error("store failed",
			zap.String("record_id", candidate.ID),
			zap.Error(err))
		return opp, fmt.Errorf("store %s: %w", candidate.ID, err)
	}

	p.logger.Info("record processed",
		zap.String("record_id", candidate.ID),
		zap.Bool("duplicate", opp.IsDuplicate),
		zap.Strings("failed_services", opp.FailedServices()),
		zap.Float64("cost_usd", opp.TotalCostUSD))

	return opp, nil
}

// runStage executes one enricher, applying skip-copy for duplicates and
// converting an expired record budget into a FAILED timeout result.
func (p *Pipeline) runStage(ctx context.Context, enricher enrichment.Enricher, candidate *models.Candidate, sc *enrichment.StageContext) models.EnrichmentResult {
	if sc.IsDuplicate() && enricher.SkipOnDuplicate() {
		if copied, ok := p.copyFromPrimary(enricher.Name(), sc); ok {
			return copied
		}
		// The primary has nothing usable for this service (it failed or
		// was skipped there too), so pay for a fresh run.
	}

	if ctx.Err() != nil {
		return models.EnrichmentResult{
			Service: enricher.Name(),
			Status:  models.EnrichmentFailed,
			Reason:  string(llm.ErrorTypeTimeout),
		}
	}

	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()
	return enricher.Run(stageCtx, candidate, sc)
}

// copyFromPrimary builds a skip-copied result from the concept's primary
// record. Only results with usable payloads are copied.
func (p *Pipeline) copyFromPrimary(service string, sc *enrichment.StageContext) (models.EnrichmentResult, bool) {
	primary, ok := sc.PrimaryResults[service]
	if !ok || !primary.HasPayload() {
		return models.EnrichmentResult{}, false
	}
	return models.EnrichmentResult{
		Service:    service,
		Status:     models.EnrichmentSkipped,
		Payload:    primary.Payload,
		Reason:     "copied from primary record",
		CopiedFrom: sc.Outcome.PrimaryRecordID,
	}, true
}

// loadPrimaryResults fetches the concept's primary record so skip-eligible
// stages can copy its payloads. A missing or unreadable primary is not
// fatal: the stages simply run fresh.
func (p *Pipeline) loadPrimaryResults(ctx context.Context, outcome *dedup.Outcome, sc *enrichment.StageContext) {
	primary, err := p.opportunities.GetByID(ctx, outcome.PrimaryRecordID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			p.logger.Warn("primary record unreadable, running stages fresh",
				zap.String("primary_record_id", outcome.PrimaryRecordID),
				zap.Error(err))
		}
		return
	}
	for _, result := range primary.Enrichments {
		sc.PrimaryResults[result.Service] = result
	}
}

// aggregate folds the candidate, the dedup outcome, and every stage result
// into the stored record, with results in pipeline order.
func (p *Pipeline) aggregate(candidate *models.Candidate, outcome *dedup.Outcome, sc *enrichment.StageContext) *models.Opportunity {
	opp := &models.Opportunity{
		ID:           candidate.ID,
		Source:       candidate.Source,
		Title:        candidate.Title,
		Description:  candidate.Description,
		Upvotes:      candidate.Upvotes,
		CommentCount: candidate.CommentCount,
		PostedAt:     candidate.CreatedAt,
		ConceptID:    outcome.Concept.ID,
		IsDuplicate:  outcome.IsDuplicate(),
		ProcessedAt:  time.Now().UTC(),
	}
	if outcome.IsDuplicate() {
		opp.PrimaryRecordID = outcome.PrimaryRecordID
	}

	for _, enricher := range p.enrichers {
		result, ok := sc.Results[enricher.Name()]
		if !ok {
			continue
		}
		opp.Enrichments = append(opp.Enrichments, result)
		opp.TotalCostUSD += result.CostUSD
	}
	return opp
}

// ProcessBatch fans candidates out over the worker pool and aggregates a
// report. One record's failure never stops the others.
func (p *Pipeline) ProcessBatch(ctx context.Context, candidates []*models.Candidate) *models.BatchReport {
	start := time.Now()
	report := &models.BatchReport{
		Processed: len(candidates),
		Errors:    make(map[string]string),
	}
	if len(candidates) == 0 {
		report.DurationMs = time.Since(start).Milliseconds()
		return report
	}

	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: p.cfg.BatchWorkers}, p.logger)

	items := make([]WorkItem[*models.Opportunity], 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, WorkItem[*models.Opportunity]{
			ID: candidate.ID,
			Execute: func(ctx context.Context) (*models.Opportunity, error) {
				return p.Process(ctx, candidate)
			},
		})
	}

	results := Run(ctx, pool, items, func(completed, total int) {
		p.logger.Debug("batch progress",
			zap.Int("completed", completed),
			zap.Int("total", total))
	})

	for _, res := range results {
		if res.Err != nil {
			report.Failed++
			report.Errors[res.ID] = res.Err.Error()
		} else {
			report.Succeeded++
		}
		if res.Result != nil {
			report.TotalCostUSD += res.Result.TotalCostUSD
			if res.Result.IsDuplicate {
				report.Duplicates++
			} else {
				report.Unique++
			}
		}
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	report.DurationMs = time.Since(start).Milliseconds()

	p.logger.Info("batch complete",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("unique", report.Unique),
		zap.Int("duplicates", report.Duplicates),
		zap.Float64("cost_usd", report.TotalCostUSD),
		zap.Duration("elapsed", time.Since(start)))

	return report
}

// Package dedup decides whether a candidate record is the first sighting of
// a concept (UNIQUE) or a repeat (DUPLICATE), mutating the concept registry
// accordingly. The decision gates the skip-and-copy optimization for the
// costly enrichment stages downstream.
package dedup

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/fingerprint"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/repositories"
)

// Decision is the dedup outcome for one candidate.
type Decision string

const (
	DecisionUnique    Decision = "unique"
	DecisionDuplicate Decision = "duplicate"
)

// Outcome carries the decision, the concept the record now belongs to, and,
// for duplicates, the primary record to copy costly enrichment from.
type Outcome struct {
	Decision        Decision
	Normalized      string
	Fingerprint     string
	Concept         *models.BusinessConcept
	PrimaryRecordID string // Set only for duplicates
}

// IsDuplicate reports whether the record is a repeat sighting.
func (o *Outcome) IsDuplicate() bool {
	return o.Decision == DecisionDuplicate
}

// Coordinator runs the dedup decision against the concept registry.
type Coordinator struct {
	concepts repositories.ConceptRepository
	logger   *zap.Logger
}

// NewCoordinator creates a dedup coordinator.
func NewCoordinator(concepts repositories.ConceptRepository, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		concepts: concepts,
		logger:   logger.Named("dedup"),
	}
}

// Decide fingerprints the candidate and resolves it to UNIQUE or DUPLICATE.
//
// A create that loses a race to a concurrent worker (the registry reports a
// duplicate fingerprint) falls back to the duplicate path exactly once; the
// conflict itself is never surfaced. Validation failures
// (apperrors.ErrEmptyConcept) are returned before any registry access.
func (c *Coordinator) Decide(ctx context.Context, candidate *models.Candidate) (*Outcome, error) {
	normalized, fp, err := fingerprint.Compute(candidate.Text())
	if err != nil {
		return nil, err
	}

	existing, err := c.concepts.GetByFingerprint(ctx, fp)
	switch {
	case err == nil:
		return c.resolveDuplicate(ctx, candidate, normalized, fp, existing)
	case errors.Is(err, apperrors.ErrNotFound):
		// Fall through to create.
	default:
		return nil, fmt.Errorf("lookup fingerprint: %w", err)
	}

	concept := &models.BusinessConcept{
		Name:            fingerprint.ConceptName(normalized),
		Fingerprint:     fp,
		PrimaryRecordID: candidate.ID,
	}
	err = c.concepts.Create(ctx, concept)
	if errors.Is(err, apperrors.ErrDuplicateFingerprint) {
		// Lost the create race: another worker registered this concept
		// between our lookup and create. Retry the lookup path once.
		c.logger.Debug("create lost fingerprint race, retrying lookup",
			zap.String("record_id", candidate.ID),
			zap.String("fingerprint", fp))

		existing, lookupErr := c.concepts.GetByFingerprint(ctx, fp)
		if lookupErr != nil {
			return nil, fmt.Errorf("lookup after create conflict: %w", lookupErr)
		}
		return c.resolveDuplicate(ctx, candidate, normalized, fp, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("create concept: %w", err)
	}

	if ok, err := c.concepts.MarkUnique(ctx, candidate.ID, concept.ID); err != nil {
		return nil, fmt.Errorf("mark unique: %w", err)
	} else if !ok {
		// No stored row yet for this record; the aggregate write will carry
		// the linkage.
		c.logger.Debug("mark unique found no stored row",
			zap.String("record_id", candidate.ID))
	}

	c.logger.Info("new concept registered",
		zap.String("record_id", candidate.ID),
		zap.String("concept", concept.Name),
		zap.String("fingerprint", fp))

	return &Outcome{
		Decision:    DecisionUnique,
		Normalized:  normalized,
		Fingerprint: fp,
		Concept:     concept,
	}, nil
}

// resolveDuplicate is the shared duplicate path: link the record, bump the
// submission count, and report the primary record for skip-copying.
//
// Re-processing the primary record itself is not a new sighting. It stays
// UNIQUE and the submission count is untouched, so re-running a batch never
// marks a record as a duplicate of itself.
func (c *Coordinator) resolveDuplicate(ctx context.Context, candidate *models.Candidate, normalized, fp string, concept *models.BusinessConcept) (*Outcome, error) {
	if concept.PrimaryRecordID == candidate.ID {
		c.logger.Debug("primary record re-processed, keeping unique",
			zap.String("record_id", candidate.ID),
			zap.String("concept", concept.Name))
		return &Outcome{
			Decision:    DecisionUnique,
			Normalized:  normalized,
			Fingerprint: fp,
			Concept:     concept,
		}, nil
	}

	if ok, err := c.concepts.MarkDuplicate(ctx, candidate.ID, concept.ID, concept.PrimaryRecordID); err != nil {
		return nil, fmt.Errorf("mark duplicate: %w", err)
	} else if !ok {
		c.logger.Debug("mark duplicate found no stored row",
			zap.String("record_id", candidate.ID))
	}

	if err := c.concepts.IncrementSubmissions(ctx, concept.ID); err != nil {
		return nil, fmt.Errorf("increment submissions: %w", err)
	}
	concept.SubmissionCount++

	c.logger.Info("duplicate concept sighting",
		zap.String("record_id", candidate.ID),
		zap.String("concept", concept.Name),
		zap.String("primary_record_id", concept.PrimaryRecordID),
		zap.Int("submission_count", concept.SubmissionCount))

	return &Outcome{
		Decision:        DecisionDuplicate,
		Normalized:      normalized,
		Fingerprint:     fp,
		Concept:         concept,
		PrimaryRecordID: concept.PrimaryRecordID,
	}, nil
}

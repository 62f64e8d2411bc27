// Package repositories provides Postgres data access for the concept
// registry and the opportunities table.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/database"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// uniqueViolation is the Postgres error code raised when the fingerprint
// unique constraint rejects a concurrent create.
const uniqueViolation = "23505"

// ConceptRepository is the canonical concept registry. Create relies on the
// fingerprint unique constraint, so two workers racing on the same concept
// cannot both win.
type ConceptRepository interface {
	// GetByFingerprint returns the concept for fp, or apperrors.ErrNotFound.
	GetByFingerprint(ctx context.Context, fp string) (*models.BusinessConcept, error)

	// Create registers a new concept. Returns
	// apperrors.ErrDuplicateFingerprint when the fingerprint already exists.
	Create(ctx context.Context, concept *models.BusinessConcept) error

	// IncrementSubmissions atomically bumps the submission count and
	// refreshes the last-updated timestamp.
	IncrementSubmissions(ctx context.Context, conceptID uuid.UUID) error

	// MarkDuplicate links a stored opportunity row to its concept and
	// primary record. Returns false when the row does not exist, which
	// callers treat as non-fatal.
	MarkDuplicate(ctx context.Context, recordID string, conceptID uuid.UUID, primaryRecordID string) (bool, error)

	// MarkUnique links a stored opportunity row to its concept as the
	// primary. Returns false when the row does not exist.
	MarkUnique(ctx context.Context, recordID string, conceptID uuid.UUID) (bool, error)
}

type conceptRepository struct {
	db *database.DB
}

// NewConceptRepository creates a Postgres-backed ConceptRepository.
func NewConceptRepository(db *database.DB) ConceptRepository {
	return &conceptRepository{db: db}
}

var _ ConceptRepository = (*conceptRepository)(nil)

func (r *conceptRepository) GetByFingerprint(ctx context.Context, fp string) (*models.BusinessConcept, error) {
	query := `
		SELECT id, name, fingerprint, primary_record_id, submission_count,
		       first_seen_at, last_updated_at
		FROM business_concepts
		WHERE fingerprint = $1`

	var c models.BusinessConcept
	err := r.db.QueryRow(ctx, query, fp).Scan(
		&c.ID, &c.Name, &c.Fingerprint, &c.PrimaryRecordID,
		&c.SubmissionCount, &c.FirstSeenAt, &c.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get concept by fingerprint: %w", err)
	}

	return &c, nil
}

func (r *conceptRepository) Create(ctx context.Context, concept *models.BusinessConcept) error {
	if concept.ID == uuid.Nil {
		concept.ID = uuid.New()
	}
	now := time.Now()

	query := `
		INSERT INTO business_concepts (
			id, name, fingerprint, primary_record_id, submission_count,
			first_seen_at, last_updated_at
		) VALUES ($1, $2, $3, $4, 1, $5, $5)
		RETURNING submission_count, first_seen_at, last_updated_at`

	err := r.db.QueryRow(ctx, query,
		concept.ID, concept.Name, concept.Fingerprint, concept.PrimaryRecordID, now,
	).Scan(&concept.SubmissionCount, &concept.FirstSeenAt, &concept.LastUpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrDuplicateFingerprint
		}
		return fmt.Errorf("create concept: %w", err)
	}

	return nil
}

func (r *conceptRepository) IncrementSubmissions(ctx context.Context, conceptID uuid.UUID) error {
	query := `
		UPDATE business_concepts
		SET submission_count = submission_count + 1, last_updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, conceptID)
	if err != nil {
		return fmt.Errorf("increment submissions: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *conceptRepository) MarkDuplicate(ctx context.Context, recordID string, conceptID uuid.UUID, primaryRecordID string) (bool, error) {
	query := `
		UPDATE opportunities
		SET concept_id = $2, is_duplicate = TRUE, primary_record_id = $3, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, recordID, conceptID, primaryRecordID)
	if err != nil {
		return false, fmt.Errorf("mark duplicate: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *conceptRepository) MarkUnique(ctx context.Context, recordID string, conceptID uuid.UUID) (bool, error) {
	query := `
		UPDATE opportunities
		SET concept_id = $2, is_duplicate = FALSE, primary_record_id = NULL, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, recordID, conceptID)
	if err != nil {
		return false, fmt.Errorf("mark unique: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

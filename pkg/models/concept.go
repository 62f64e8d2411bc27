package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessConcept is the canonical registry entry for one unique idea.
// Created on first sighting of a fingerprint, mutated (submission count,
// last-seen timestamp) on every subsequent sighting, never deleted.
// Stored in the business_concepts table with a unique constraint on
// fingerprint.
type BusinessConcept struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`        // Human-readable label derived from the first sighting
	Fingerprint     string    `json:"fingerprint"` // SHA-256 hex of the normalized concept text
	PrimaryRecordID string    `json:"primary_record_id"`
	SubmissionCount int       `json:"submission_count"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
}

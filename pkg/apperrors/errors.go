package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrEmptyConcept means a candidate's description normalized to nothing,
	// so no fingerprint can be computed for it.
	ErrEmptyConcept = errors.New("concept text is empty after normalization")

	// ErrDuplicateFingerprint is returned by ConceptRepository.Create when the
	// fingerprint already exists. The dedup coordinator handles it by retrying
	// the lookup path; it is never surfaced to callers.
	ErrDuplicateFingerprint = errors.New("fingerprint already registered")
)

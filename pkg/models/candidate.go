package models

import "time"

// Candidate is a raw problem/opportunity record produced by an upstream
// fetcher. It is immutable once handed to the pipeline.
type Candidate struct {
	ID            string    `json:"id"`     // Stable identifier from the source (e.g. post ID)
	Source        string    `json:"source"` // e.g. "reddit:r/somebusiness"
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description"` // Free-text problem description
	Upvotes       int       `json:"upvotes"`
	CommentCount  int       `json:"comment_count"`
	AuthorKarma   int       `json:"author_karma"`
	AuthorAgeDays int       `json:"author_age_days"`
	CreatedAt     time.Time `json:"created_at"`
}

// Text returns the text used for concept fingerprinting: the title when
// present, otherwise the description.
func (c *Candidate) Text() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Description
}

// EngagementScore is a coarse popularity signal used by enrichment
// preconditions (upvotes weighted over comments).
func (c *Candidate) EngagementScore() int {
	return c.Upvotes + 2*c.CommentCount
}

// Package fetcher supplies candidate records to the pipeline. The engine
// processes whatever a Fetcher hands it; where the records come from (an
// export file, a crawler, an API poller) is the fetcher's business.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
)

// Fetcher produces one batch of candidate records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]*models.Candidate, error)
}

// FileFetcher reads candidates from a JSON export: either a bare array of
// records or an object with a "records" key, which is what the scraper's
// export format produces.
type FileFetcher struct {
	path   string
	logger *zap.Logger
}

// NewFileFetcher creates a fetcher over a JSON export file.
func NewFileFetcher(path string, logger *zap.Logger) *FileFetcher {
	return &FileFetcher{
		path:   path,
		logger: logger.Named("fetcher"),
	}
}

var _ Fetcher = (*FileFetcher)(nil)

// Fetch implements Fetcher. Records without an ID are dropped with a
// warning rather than failing the batch.
func (f *FileFetcher) Fetch(_ context.Context) ([]*models.Candidate, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	kept := candidates[:0]
	dropped := 0
	for _, candidate := range candidates {
		if candidate.ID == "" {
			dropped++
			continue
		}
		kept = append(kept, candidate)
	}
	if dropped > 0 {
		f.logger.Warn("dropped records without an ID",
			zap.String("path", f.path),
			zap.Int("dropped", dropped))
	}

	f.logger.Info("candidates loaded",
		zap.String("path", f.path),
		zap.Int("count", len(kept)))

	return kept, nil
}

func decodeCandidates(raw []byte) ([]*models.Candidate, error) {
	var list []*models.Candidate
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Records []*models.Candidate `json:"records"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Records, nil
}

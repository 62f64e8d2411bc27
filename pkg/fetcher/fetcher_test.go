package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidates.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileFetcherBareArray(t *testing.T) {
	path := writeExport(t, `[
		{"id": "a", "source": "reddit:r/somebusiness", "title": "Invoices are a mess", "upvotes": 12},
		{"id": "b", "source": "reddit:r/somebusiness", "description": "Scheduling posts by hand"}
	]`)

	candidates, err := NewFileFetcher(path, zap.NewNop()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].ID)
	assert.Equal(t, 12, candidates[0].Upvotes)
	assert.Equal(t, "Scheduling posts by hand", candidates[1].Text())
}

func TestFileFetcherWrappedRecords(t *testing.T) {
	path := writeExport(t, `{"records": [{"id": "a", "title": "Invoices"}], "exported_at": "2026-08-01"}`)

	candidates, err := NewFileFetcher(path, zap.NewNop()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].ID)
}

func TestFileFetcherDropsRecordsWithoutID(t *testing.T) {
	path := writeExport(t, `[{"id": "a", "title": "kept"}, {"title": "dropped"}]`)

	candidates, err := NewFileFetcher(path, zap.NewNop()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].ID)
}

func TestFileFetcherMissingFile(t *testing.T) {
	_, err := NewFileFetcher(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop()).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileFetcherMalformedJSON(t *testing.T) {
	path := writeExport(t, `not json`)
	_, err := NewFileFetcher(path, zap.NewNop()).Fetch(context.Background())
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "test")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 4, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RecordTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Search.CacheTTL)
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
env: staging
database:
  host: db.internal
  database: ideaforge_staging
pipeline:
  batch_workers: 8
  min_engagement: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("PGHOST", "env-wins.internal")
	t.Setenv("PGPASSWORD", "secret")

	cfg, err := Load(path, "test")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "env-wins.internal", cfg.Database.Host)
	assert.Equal(t, "ideaforge_staging", cfg.Database.Database)
	assert.Equal(t, 8, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, 10, cfg.Pipeline.MinEngagement)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "ideaforge",
		Password: "pw", Database: "ideaforge_engine", SSLMode: "disable",
	}
	assert.Equal(t,
		"postgres://ideaforge:pw@localhost:5432/ideaforge_engine?sslmode=disable",
		cfg.DSN())
}

func TestLoad_RejectsBadPipelineSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  batch_workers: 0\n"), 0o644))

	_, err := Load(path, "test")
	assert.Error(t, err)
}

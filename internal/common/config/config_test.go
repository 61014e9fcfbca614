package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"worker-discovery/internal/discovery/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
workers:
  search-workers:
    enabled: true
    max_items: 20
  rank-eligible-workers:
    enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "worker-discovery", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, WeightsSourceConfig, cfg.Ranking.WeightsSource)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
	assert.Equal(t, "info", cfg.Logging.Level)

	search := GetWorkerConfig(cfg, "search-workers")
	assert.True(t, search.Enabled)
	assert.Equal(t, 20, search.MaxItems)
	assert.Equal(t, 10000, search.Timeout)

	assert.False(t, IsWorkerEnabled(cfg, "rank-eligible-workers"))
	assert.True(t, IsWorkerEnabled(cfg, "resolve-worker-status"), "unconfigured workers default to enabled")

	engine, err := cfg.Ranking.ToEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, ranking.DefaultConfig(), engine)
}

func TestLoadFromFile_RankingSection(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
ranking:
  version: tuned-2024-05
  default_max_distance_km: 40
  weights:
    distance: 0.5
    rating: 0.5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	engine, err := cfg.Ranking.ToEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "tuned-2024-05", engine.Version)
	assert.Equal(t, 40.0, engine.DefaultMaxDistanceKm)
	assert.Equal(t, ranking.Weights{Distance: 0.5, Rating: 0.5}, engine.Weights)
	assert.Equal(t, ranking.DefaultConfig().SlowResponseMinutes, engine.SlowResponseMinutes)
}

func TestLoadFromFile_ExplicitZeroKept(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
ranking:
  rating_min: 0
  rating_max: 10
  tie_epsilon: 0
  neutral_signal: 0
  fast_response_minutes: 0
  parallel_threshold: 0
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	engine, err := cfg.Ranking.ToEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.0, engine.RatingMin)
	assert.Equal(t, 10.0, engine.RatingMax)
	assert.Equal(t, 0.0, engine.TieEpsilon)
	assert.Equal(t, 0.0, engine.NeutralSignal)
	assert.Equal(t, 0.0, engine.FastResponseMinutes)
	assert.Equal(t, 0, engine.ParallelThreshold)
	assert.Equal(t, ranking.DefaultConfig().NeutralRating, engine.NeutralRating, "absent keys keep defaults")
	assert.Equal(t, ranking.DefaultConfig().Weights, engine.Weights)
}

func TestToEngineConfig_ZeroIsNotDefaulted(t *testing.T) {
	zero := 0.0
	ten := 10.0
	engine, err := RankingConfig{RatingMin: &zero, RatingMax: &ten, TieEpsilon: &zero}.ToEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.0, engine.RatingMin)
	assert.Equal(t, 0.0, engine.TieEpsilon)

	_, err = RankingConfig{Weights: &WeightsConfig{}}.ToEngineConfig()
	assert.ErrorIs(t, err, ranking.ErrInvalidConfig, "an explicit all-zero weights block is rejected, not replaced")
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_ZEEBE_HOST", "zeebe.internal:26500")
	t.Setenv("DB_PASSWORD", "from-env")

	path := writeConfig(t, `
camunda:
  broker_address: ${TEST_ZEEBE_HOST}
database:
  postgres:
    host: db
    database: discovery
    user: discovery
  redis:
    address: redis:6379
ranking:
  weights_source: store
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zeebe.internal:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "from-env", cfg.Database.Postgres.Password)
	assert.Equal(t, "host=db port=5432 user=discovery password=from-env dbname=discovery sslmode=disable",
		cfg.Database.Postgres.GetDSN())
	assert.Equal(t, time.Minute, GetDuration(cfg.Ranking.WeightsRefreshInterval))
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing broker",
			body: "logging:\n  level: debug\n",
		},
		{
			name: "store without postgres",
			body: "camunda:\n  broker_address: x:1\nranking:\n  weights_source: store\n",
		},
		{
			name: "unknown weights source",
			body: "camunda:\n  broker_address: x:1\nranking:\n  weights_source: s3\n",
		},
		{
			name: "negative weight",
			body: "camunda:\n  broker_address: x:1\nranking:\n  weights:\n    distance: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ZEEBE_ADDRESS", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

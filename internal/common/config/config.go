package config

import (
	"fmt"

	"worker-discovery/internal/discovery/ranking"
)

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
	Ranking  RankingConfig           `mapstructure:"ranking"`
	Registry RegistryConfig          `mapstructure:"registry"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Insecure       bool   `mapstructure:"insecure"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxItems      int  `mapstructure:"max_items"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// Weight sources for the ranking engine.
const (
	WeightsSourceConfig = "config"
	WeightsSourceStore  = "store"
)

// RankingConfig mirrors ranking.Config. Keys left out of the file take the engine
// defaults; a key that is present is used as written, zero included.
type RankingConfig struct {
	Version              string         `mapstructure:"version"`
	Weights              *WeightsConfig `mapstructure:"weights"`
	DefaultMaxDistanceKm *float64       `mapstructure:"default_max_distance_km"`
	RatingMin            *float64       `mapstructure:"rating_min"`
	RatingMax            *float64       `mapstructure:"rating_max"`
	NeutralRating        *float64       `mapstructure:"neutral_rating"`
	NeutralSignal        *float64       `mapstructure:"neutral_signal"`
	JobSaturation        *float64       `mapstructure:"job_saturation"`
	YearsSaturation      *float64       `mapstructure:"years_saturation"`
	FastResponseMinutes  *float64       `mapstructure:"fast_response_minutes"`
	SlowResponseMinutes  *float64       `mapstructure:"slow_response_minutes"`
	TieEpsilon           *float64       `mapstructure:"tie_epsilon"`
	ParallelThreshold    *int           `mapstructure:"parallel_threshold"`

	// WeightsSource is "config" to rank with this section only, or "store" to load
	// versioned weight sets from Postgres with this section as the fallback.
	WeightsSource          string `mapstructure:"weights_source"`
	WeightsRefreshInterval int    `mapstructure:"weights_refresh_interval"` // milliseconds
	WeightsCacheTTL        int    `mapstructure:"weights_cache_ttl"`        // milliseconds
}

type WeightsConfig struct {
	Distance       float64 `mapstructure:"distance"`
	Rating         float64 `mapstructure:"rating"`
	Experience     float64 `mapstructure:"experience"`
	Responsiveness float64 `mapstructure:"responsiveness"`
	PriceFit       float64 `mapstructure:"price_fit"`
}

// ToEngineConfig converts the section into a validated ranking.Config.
func (r RankingConfig) ToEngineConfig() (ranking.Config, error) {
	cfg := ranking.DefaultConfig()

	if r.Version != "" {
		cfg.Version = r.Version
	}
	if r.Weights != nil {
		cfg.Weights = ranking.Weights{
			Distance:       r.Weights.Distance,
			Rating:         r.Weights.Rating,
			Experience:     r.Weights.Experience,
			Responsiveness: r.Weights.Responsiveness,
			PriceFit:       r.Weights.PriceFit,
		}
	}
	override(&cfg.DefaultMaxDistanceKm, r.DefaultMaxDistanceKm)
	override(&cfg.RatingMin, r.RatingMin)
	override(&cfg.RatingMax, r.RatingMax)
	override(&cfg.NeutralRating, r.NeutralRating)
	override(&cfg.NeutralSignal, r.NeutralSignal)
	override(&cfg.JobSaturation, r.JobSaturation)
	override(&cfg.YearsSaturation, r.YearsSaturation)
	override(&cfg.FastResponseMinutes, r.FastResponseMinutes)
	override(&cfg.SlowResponseMinutes, r.SlowResponseMinutes)
	override(&cfg.TieEpsilon, r.TieEpsilon)
	override(&cfg.ParallelThreshold, r.ParallelThreshold)

	if err := cfg.Validate(); err != nil {
		return ranking.Config{}, err
	}
	return cfg, nil
}

func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

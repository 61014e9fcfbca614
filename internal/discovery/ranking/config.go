package ranking

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var ErrInvalidConfig = errors.New("invalid ranking config")

// Weights are the per-signal multipliers of the composite score.
type Weights struct {
	Distance       float64 `json:"distance"`
	Rating         float64 `json:"rating"`
	Experience     float64 `json:"experience"`
	Responsiveness float64 `json:"responsiveness"`
	PriceFit       float64 `json:"priceFit"`
}

func (w Weights) sum() float64 {
	return w.Distance + w.Rating + w.Experience + w.Responsiveness + w.PriceFit
}

// Config is the complete, immutable tuning of the ranking engine. Replace it as a
// whole; never modify a Config that is already in use.
type Config struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`

	// DefaultMaxDistanceKm normalizes distance when the search has no radius.
	DefaultMaxDistanceKm float64 `json:"defaultMaxDistanceKm"`

	RatingMin     float64 `json:"ratingMin"`
	RatingMax     float64 `json:"ratingMax"`
	NeutralRating float64 `json:"neutralRating"`

	// NeutralSignal is used for a signal whose input data is missing.
	NeutralSignal float64 `json:"neutralSignal"`

	// Completed jobs and years at which the experience components saturate at 1.
	JobSaturation   float64 `json:"jobSaturation"`
	YearsSaturation float64 `json:"yearsSaturation"`

	FastResponseMinutes float64 `json:"fastResponseMinutes"`
	SlowResponseMinutes float64 `json:"slowResponseMinutes"`

	// TieEpsilon is the width of the score buckets used for tie-breaking. Scores
	// that round to the same multiple of TieEpsilon are ordered by the tie-break
	// keys. Two scores closer than TieEpsilon that straddle a bucket boundary are
	// still ordered by score; fixed buckets keep the order transitive, a pairwise
	// "closer than epsilon" rule would not. Zero orders by exact score.
	TieEpsilon float64 `json:"tieEpsilon"`

	// Pools of at least ParallelThreshold candidates are scored concurrently.
	// Zero disables concurrent scoring.
	ParallelThreshold int `json:"parallelThreshold"`
}

// DefaultConfig returns the built-in weight set.
func DefaultConfig() Config {
	return Config{
		Version: "default-v1",
		Weights: Weights{
			Distance:       0.35,
			Rating:         0.25,
			Experience:     0.15,
			Responsiveness: 0.15,
			PriceFit:       0.10,
		},
		DefaultMaxDistanceKm: 25,
		RatingMin:            1,
		RatingMax:            5,
		NeutralRating:        3,
		NeutralSignal:        0.5,
		JobSaturation:        200,
		YearsSaturation:      10,
		FastResponseMinutes:  5,
		SlowResponseMinutes:  120,
		TieEpsilon:           1e-6,
		ParallelThreshold:    512,
	}
}

// Validate rejects a configuration the engine cannot score with.
func (c Config) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"distance", c.Weights.Distance},
		{"rating", c.Weights.Rating},
		{"experience", c.Weights.Experience},
		{"responsiveness", c.Weights.Responsiveness},
		{"priceFit", c.Weights.PriceFit},
	}
	for _, w := range weights {
		if !finite(w.value) || w.value < 0 {
			return fmt.Errorf("%w: weight %s=%v must be a finite non-negative number", ErrInvalidConfig, w.name, w.value)
		}
	}
	if c.Weights.sum() == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidConfig)
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"defaultMaxDistanceKm", c.DefaultMaxDistanceKm},
		{"jobSaturation", c.JobSaturation},
		{"yearsSaturation", c.YearsSaturation},
	}
	for _, p := range positive {
		if !finite(p.value) || p.value <= 0 {
			return fmt.Errorf("%w: %s=%v must be positive", ErrInvalidConfig, p.name, p.value)
		}
	}

	if !finite(c.RatingMin) || !finite(c.RatingMax) || c.RatingMin >= c.RatingMax {
		return fmt.Errorf("%w: rating bounds [%v, %v] are inverted", ErrInvalidConfig, c.RatingMin, c.RatingMax)
	}
	if !finite(c.NeutralRating) || c.NeutralRating < c.RatingMin || c.NeutralRating > c.RatingMax {
		return fmt.Errorf("%w: neutralRating %v outside [%v, %v]", ErrInvalidConfig, c.NeutralRating, c.RatingMin, c.RatingMax)
	}
	if !finite(c.NeutralSignal) || c.NeutralSignal < 0 || c.NeutralSignal > 1 {
		return fmt.Errorf("%w: neutralSignal %v outside [0, 1]", ErrInvalidConfig, c.NeutralSignal)
	}
	if !finite(c.FastResponseMinutes) || !finite(c.SlowResponseMinutes) ||
		c.FastResponseMinutes < 0 || c.FastResponseMinutes >= c.SlowResponseMinutes {
		return fmt.Errorf("%w: response bounds [%v, %v] are inverted", ErrInvalidConfig,
			c.FastResponseMinutes, c.SlowResponseMinutes)
	}
	if !finite(c.TieEpsilon) || c.TieEpsilon < 0 {
		return fmt.Errorf("%w: tieEpsilon %v must be non-negative", ErrInvalidConfig, c.TieEpsilon)
	}
	if c.ParallelThreshold < 0 {
		return fmt.Errorf("%w: parallelThreshold %d must be non-negative", ErrInvalidConfig, c.ParallelThreshold)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Holder publishes the active Config to concurrent readers. Readers always see a
// complete, validated Config.
type Holder struct {
	current atomic.Pointer[Config]
}

// NewHolder validates initial and makes it the active config.
func NewHolder(initial Config) (*Holder, error) {
	h := &Holder{}
	if err := h.Store(initial); err != nil {
		return nil, err
	}
	return h, nil
}

// Load returns the active config.
func (h *Holder) Load() Config {
	return *h.current.Load()
}

// Store validates cfg and swaps it in. On error the active config is unchanged.
func (h *Holder) Store(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	h.current.Store(&cfg)
	return nil
}

// Version returns the version label of the active config.
func (h *Holder) Version() string {
	return h.current.Load().Version
}

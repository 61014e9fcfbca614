package ranking

import (
	"fmt"
	"math"
	"sort"

	"worker-discovery/internal/discovery/geo"
	"worker-discovery/internal/models"
)

// scorer holds the per-call inputs shared by every candidate. It is read-only once
// built.
type scorer struct {
	cfg           Config
	ctx           models.SearchContext
	maxDistanceKm float64
	priceTarget   *float64
}

func newScorer(cfg Config, eligible []models.CandidateWorker, ctx models.SearchContext) *scorer {
	s := &scorer{cfg: cfg, ctx: ctx, maxDistanceKm: cfg.DefaultMaxDistanceKm}
	if ctx.MaxDistanceKm != nil {
		s.maxDistanceKm = *ctx.MaxDistanceKm
	}

	switch {
	case ctx.MaxPrice != nil && *ctx.MaxPrice > 0:
		target := *ctx.MaxPrice
		s.priceTarget = &target
	default:
		if median, ok := medianPrice(eligible); ok && median > 0 {
			s.priceTarget = &median
		}
	}
	return s
}

func (s *scorer) score(c models.CandidateWorker) (scored, error) {
	var defaulted []string

	distance, err := s.distanceKm(c)
	if err != nil {
		return scored{}, err
	}

	signals := models.MatchedSignals{
		Distance:   s.distanceSignal(distance),
		Experience: s.experienceSignal(c),
	}

	var ok bool
	if signals.Rating, ok = s.ratingSignal(c); !ok {
		defaulted = append(defaulted, models.SignalRating)
	}
	if signals.Responsiveness, ok = s.responsivenessSignal(c); !ok {
		defaulted = append(defaulted, models.SignalResponsiveness)
	}
	if signals.PriceFit, ok = s.priceFitSignal(c); !ok {
		defaulted = append(defaulted, models.SignalPriceFit)
	}
	signals.Defaulted = defaulted

	w := s.cfg.Weights
	composite := w.Distance*signals.Distance +
		w.Rating*signals.Rating +
		w.Experience*signals.Experience +
		w.Responsiveness*signals.Responsiveness +
		w.PriceFit*signals.PriceFit

	return scored{
		result: models.RankedResult{
			WorkerID:       c.ID,
			CompositeScore: composite,
			DistanceKm:     distance,
			MatchedSignals: signals,
		},
		bucket: scoreBucket(composite, s.cfg.TieEpsilon),
		rating: signals.Rating,
	}, nil
}

// scoreBucket rounds composite to a multiple of epsilon. Zero keeps the exact score.
func scoreBucket(composite, epsilon float64) float64 {
	if epsilon > 0 {
		return math.Round(composite / epsilon)
	}
	return composite
}

// distanceKm prefers the distance computed by the eligibility filter.
func (s *scorer) distanceKm(c models.CandidateWorker) (float64, error) {
	if c.DistanceKm != nil {
		return *c.DistanceKm, nil
	}
	d, err := geo.DistanceKm(s.ctx.CustomerLocation, c.Location)
	if err != nil {
		return 0, fmt.Errorf("%w: candidate %s: %w", models.ErrInvalidCandidate, c.ID, err)
	}
	return d, nil
}

// distanceSignal is 1 at the customer's location falling linearly to 0 at the radius.
func (s *scorer) distanceSignal(d float64) float64 {
	if s.maxDistanceKm == 0 {
		if d == 0 {
			return 1
		}
		return 0
	}
	return 1 - math.Min(d/s.maxDistanceKm, 1)
}

func (s *scorer) ratingSignal(c models.CandidateWorker) (float64, bool) {
	rating, ok := s.cfg.NeutralRating, false
	if c.Rating != nil && c.ReviewCount > 0 {
		rating, ok = *c.Rating, true
	}
	return clamp01((rating - s.cfg.RatingMin) / (s.cfg.RatingMax - s.cfg.RatingMin)), ok
}

// experienceSignal blends completed jobs on a saturating log scale with years of
// experience. Without years only the jobs component counts.
func (s *scorer) experienceSignal(c models.CandidateWorker) float64 {
	jobs := math.Min(math.Log1p(float64(c.CompletedJobs))/math.Log1p(s.cfg.JobSaturation), 1)
	if c.ExperienceYears == nil {
		return jobs
	}
	years := math.Min(*c.ExperienceYears/s.cfg.YearsSaturation, 1)
	return 0.5*jobs + 0.5*years
}

func (s *scorer) responsivenessSignal(c models.CandidateWorker) (float64, bool) {
	if c.AvgResponseMinutes == nil {
		return s.cfg.NeutralSignal, false
	}
	m := *c.AvgResponseMinutes
	fast, slow := s.cfg.FastResponseMinutes, s.cfg.SlowResponseMinutes
	switch {
	case m <= fast:
		return 1, true
	case m >= slow:
		return 0, true
	}
	return 1 - (m-fast)/(slow-fast), true
}

func (s *scorer) priceFitSignal(c models.CandidateWorker) (float64, bool) {
	if c.StartingPrice == nil || s.priceTarget == nil {
		return s.cfg.NeutralSignal, false
	}
	target := *s.priceTarget
	return 1 - math.Min(math.Abs(*c.StartingPrice-target)/target, 1), true
}

func medianPrice(eligible []models.CandidateWorker) (float64, bool) {
	prices := make([]float64, 0, len(eligible))
	for _, c := range eligible {
		if c.StartingPrice != nil {
			prices = append(prices, *c.StartingPrice)
		}
	}
	if len(prices) == 0 {
		return 0, false
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid], true
	}
	return (prices[mid-1] + prices[mid]) / 2, true
}

// Package ranking orders eligible workers by a weighted multi-signal relevance score.
package ranking

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"worker-discovery/internal/discovery/geo"
	"worker-discovery/internal/models"

	"golang.org/x/sync/errgroup"
)

// Engine scores and orders candidates with the config held by its Holder.
// Each call reads the config once, so a concurrent reload never mixes weight sets
// within one ranking.
type Engine struct {
	holder *Holder
}

func NewEngine(holder *Holder) *Engine {
	return &Engine{holder: holder}
}

// Ranking is an ordered result together with the config version that produced it.
type Ranking struct {
	Results       []models.RankedResult
	ConfigVersion string
}

// Rank returns eligible ordered best-first.
func (e *Engine) Rank(eligible []models.CandidateWorker, ctx models.SearchContext) ([]models.RankedResult, error) {
	r, err := e.RankSnapshot(eligible, ctx)
	if err != nil {
		return nil, err
	}
	return r.Results, nil
}

// RankSnapshot is Rank plus the version of the config used.
func (e *Engine) RankSnapshot(eligible []models.CandidateWorker, ctx models.SearchContext) (Ranking, error) {
	cfg := e.holder.Load()
	results, err := rank(cfg, eligible, ctx)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{Results: results, ConfigVersion: cfg.Version}, nil
}

// scored carries the sort keys next to the public result.
type scored struct {
	result models.RankedResult
	bucket float64
	rating float64
}

func rank(cfg Config, eligible []models.CandidateWorker, ctx models.SearchContext) ([]models.RankedResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCandidates(eligible); err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return []models.RankedResult{}, nil
	}

	s := newScorer(cfg, eligible, ctx)
	items := make([]scored, len(eligible))

	if cfg.ParallelThreshold > 0 && len(eligible) >= cfg.ParallelThreshold {
		if err := scoreParallel(s, eligible, items); err != nil {
			return nil, err
		}
	} else {
		for i := range eligible {
			item, err := s.score(eligible[i])
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
	}

	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })

	results := make([]models.RankedResult, len(items))
	for i := range items {
		results[i] = items[i].result
	}
	return results, nil
}

// scoreParallel splits the pool into contiguous chunks, one goroutine each. Every
// goroutine writes only its own index range of items.
func scoreParallel(s *scorer, eligible []models.CandidateWorker, items []scored) error {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(eligible) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(eligible); start += chunk {
		lo, hi := start, min(start+chunk, len(eligible))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				item, err := s.score(eligible[i])
				if err != nil {
					return err
				}
				items[i] = item
			}
			return nil
		})
	}
	return g.Wait()
}

// less is a strict total order: composite score bucket descending, then distance
// ascending, rating signal descending and worker ID ascending. Scores are bucketed by
// TieEpsilon so the relation stays transitive.
func less(a, b scored) bool {
	if a.bucket != b.bucket {
		return a.bucket > b.bucket
	}
	if a.result.DistanceKm != b.result.DistanceKm {
		return a.result.DistanceKm < b.result.DistanceKm
	}
	if a.rating != b.rating {
		return a.rating > b.rating
	}
	return a.result.WorkerID < b.result.WorkerID
}

func validateContext(ctx models.SearchContext) error {
	if err := geo.Validate(ctx.CustomerLocation); err != nil {
		return fmt.Errorf("%w: customerLocation: %w", models.ErrInvalidSearchContext, err)
	}
	if ctx.MaxDistanceKm != nil && !nonNegative(*ctx.MaxDistanceKm) {
		return fmt.Errorf("%w: maxDistanceKm %v", models.ErrInvalidSearchContext, *ctx.MaxDistanceKm)
	}
	if ctx.MaxPrice != nil && !nonNegative(*ctx.MaxPrice) {
		return fmt.Errorf("%w: maxPrice %v", models.ErrInvalidSearchContext, *ctx.MaxPrice)
	}
	return nil
}

func validateCandidates(eligible []models.CandidateWorker) error {
	seen := make(map[string]struct{}, len(eligible))
	for _, c := range eligible {
		if c.ID == "" {
			return fmt.Errorf("%w: id is required", models.ErrInvalidCandidate)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", models.ErrInvalidCandidate, c.ID)
		}
		seen[c.ID] = struct{}{}

		optional := []struct {
			name  string
			value *float64
		}{
			{"distanceKm", c.DistanceKm},
			{"startingPrice", c.StartingPrice},
			{"avgResponseMinutes", c.AvgResponseMinutes},
			{"experienceYears", c.ExperienceYears},
		}
		for _, f := range optional {
			if f.value != nil && !nonNegative(*f.value) {
				return fmt.Errorf("%w: candidate %s: %s %v", models.ErrInvalidCandidate, c.ID, f.name, *f.value)
			}
		}
		if c.Rating != nil && !finite(*c.Rating) {
			return fmt.Errorf("%w: candidate %s: rating %v", models.ErrInvalidCandidate, c.ID, *c.Rating)
		}
		if c.ReviewCount < 0 || c.CompletedJobs < 0 {
			return fmt.Errorf("%w: candidate %s: negative counters", models.ErrInvalidCandidate, c.ID)
		}
		if c.DistanceKm == nil {
			if err := geo.Validate(c.Location); err != nil {
				return fmt.Errorf("%w: candidate %s: %w", models.ErrInvalidCandidate, c.ID, err)
			}
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

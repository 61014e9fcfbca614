package ranking

import (
	"fmt"
	"testing"

	"worker-discovery/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// poolFromSeeds derives a reproducible eligible set from generated integers.
func poolFromSeeds(seeds []int) []models.CandidateWorker {
	pool := make([]models.CandidateWorker, 0, len(seeds))
	for i, seed := range seeds {
		c := worker(fmt.Sprintf("w-%03d", i), float64(seed%50)/2, 1+float64(seed%9)*0.5)
		c.CompletedJobs = seed % 300
		if seed%3 == 0 {
			c.AvgResponseMinutes = f64(float64(seed % 180))
		}
		if seed%4 != 0 {
			c.StartingPrice = f64(float64(30 + seed%120))
		}
		if seed%7 == 0 {
			c.ReviewCount = 0
		}
		pool = append(pool, c)
	}
	return pool
}

func TestProperty_Rank(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	cfg := DefaultConfig()
	h, err := NewHolder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(h)
	ctx := createTestContext()

	properties.Property("results are ordered by composite score", prop.ForAll(
		func(seeds []int) bool {
			results, err := engine.Rank(poolFromSeeds(seeds), ctx)
			if err != nil || len(results) != len(seeds) {
				return false
			}
			for i := 1; i < len(results); i++ {
				if results[i-1].CompositeScore < results[i].CompositeScore-cfg.TieEpsilon {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("ranking does not depend on input order", prop.ForAll(
		func(seeds []int) bool {
			pool := poolFromSeeds(seeds)
			reversed := make([]models.CandidateWorker, len(pool))
			for i := range pool {
				reversed[len(pool)-1-i] = pool[i]
			}
			a, errA := engine.Rank(pool, ctx)
			b, errB := engine.Rank(reversed, ctx)
			if errA != nil || errB != nil || len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].WorkerID != b[i].WorkerID || a[i].CompositeScore != b[i].CompositeScore {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("closer is never scored lower when all else is equal", prop.ForAll(
		func(near, extra float64) bool {
			a := worker("a", near, 4)
			b := worker("b", near+extra, 4)
			results, err := engine.Rank([]models.CandidateWorker{b, a}, ctx)
			if err != nil || len(results) != 2 {
				return false
			}
			var scoreA, scoreB float64
			for _, r := range results {
				if r.WorkerID == "a" {
					scoreA = r.CompositeScore
				} else {
					scoreB = r.CompositeScore
				}
			}
			return scoreA >= scoreB && results[0].WorkerID == "a"
		},
		gen.Float64Range(0, 40),
		gen.Float64Range(0, 40),
	))

	properties.TestingRun(t)
}

package eligibility

import (
	"fmt"
	"testing"

	"worker-discovery/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genPool builds a pool of n candidates whose attributes are driven by the seeds.
func genPool(seeds []int) []models.CandidateWorker {
	skills := []string{"plumbing", "plumbing", "electrical"}
	pool := make([]models.CandidateWorker, 0, len(seeds))
	for i, seed := range seeds {
		c := candidate(fmt.Sprintf("w-%03d", i), float64(seed%30))
		c.PrimarySkill = skills[seed%len(skills)]
		if seed%4 == 0 {
			c.Availability = offline()
		}
		if seed%5 != 0 {
			c.StartingPrice = f64(float64(20 + seed%100))
		}
		pool = append(pool, c)
	}
	return pool
}

func TestProperty_FilterEligible(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	p := NewProcessor()

	ctx := createTestContext()
	ctx.MaxDistanceKm = f64(15)
	ctx.MaxPrice = f64(90)

	properties.Property("filtering is idempotent", prop.ForAll(
		func(seeds []int) bool {
			first, err := p.FilterEligible(genPool(seeds), ctx)
			if err != nil {
				return false
			}
			second, err := p.FilterEligible(first, ctx)
			if err != nil || len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i].ID != second[i].ID || *first[i].DistanceKm != *second[i].DistanceKm {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("result is an order-preserving subset", prop.ForAll(
		func(seeds []int) bool {
			pool := genPool(seeds)
			eligible, err := p.FilterEligible(pool, ctx)
			if err != nil {
				return false
			}
			j := 0
			for _, c := range eligible {
				for j < len(pool) && pool[j].ID != c.ID {
					j++
				}
				if j == len(pool) {
					return false
				}
				j++
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("every eligible worker satisfies the context", prop.ForAll(
		func(seeds []int) bool {
			eligible, err := p.FilterEligible(genPool(seeds), ctx)
			if err != nil {
				return false
			}
			for _, c := range eligible {
				if c.PrimarySkill != ctx.RequiredSkill || *c.DistanceKm > *ctx.MaxDistanceKm {
					return false
				}
				if c.StartingPrice != nil && *c.StartingPrice > *ctx.MaxPrice {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

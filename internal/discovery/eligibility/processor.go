// Package eligibility reduces a candidate pool to the workers that may appear in a
// customer's search result.
package eligibility

import (
	"fmt"
	"math"

	"worker-discovery/internal/discovery/availability"
	"worker-discovery/internal/discovery/geo"
	"worker-discovery/internal/models"
)

// Rejection reasons, in evaluation order.
const (
	ReasonSkill    = "skill"
	ReasonStatus   = "status"
	ReasonDistance = "distance"
	ReasonPrice    = "price"
)

// Report counts the candidates rejected by each check.
type Report struct {
	Total    int            `json:"total"`
	Eligible int            `json:"eligible"`
	Rejected map[string]int `json:"rejected"`
}

func newReport(total int) Report {
	return Report{
		Total: total,
		Rejected: map[string]int{
			ReasonSkill:    0,
			ReasonStatus:   0,
			ReasonDistance: 0,
			ReasonPrice:    0,
		},
	}
}

// Processor applies the eligibility checks. It is stateless and safe for concurrent use.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// FilterEligible returns, in input order, copies of the candidates that pass every
// check for ctx. Returned copies carry DistanceKm. The input slice is never modified.
func (p *Processor) FilterEligible(candidates []models.CandidateWorker, ctx models.SearchContext) ([]models.CandidateWorker, error) {
	eligible, _, err := p.FilterWithReport(candidates, ctx)
	return eligible, err
}

// FilterWithReport is FilterEligible plus per-reason rejection counts.
func (p *Processor) FilterWithReport(candidates []models.CandidateWorker, ctx models.SearchContext) ([]models.CandidateWorker, Report, error) {
	report := newReport(len(candidates))
	if err := ValidateContext(ctx); err != nil {
		return nil, report, err
	}

	eligible := make([]models.CandidateWorker, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if err := validateCandidate(c); err != nil {
			return nil, report, err
		}

		reason, distance, err := check(c, ctx)
		if err != nil {
			return nil, report, err
		}
		if reason != "" {
			report.Rejected[reason]++
			continue
		}

		d := distance
		c.DistanceKm = &d
		c.SubSkills = append([]string(nil), c.SubSkills...)
		eligible = append(eligible, c)
	}
	report.Eligible = len(eligible)
	return eligible, report, nil
}

// check runs the ordered checks and returns the first failing reason, or "" when c
// is eligible. Distance is only computed once the cheaper checks pass.
func check(c models.CandidateWorker, ctx models.SearchContext) (string, float64, error) {
	if !skillMatches(c, ctx) {
		return ReasonSkill, 0, nil
	}

	online, err := availability.IsOnline(c.Availability, ctx.Now)
	if err != nil {
		return "", 0, fmt.Errorf("candidate %s: %w", c.ID, err)
	}
	if !online {
		return ReasonStatus, 0, nil
	}

	distance, err := geo.DistanceKm(ctx.CustomerLocation, c.Location)
	if err != nil {
		return "", 0, fmt.Errorf("%w: candidate %s: %w", models.ErrInvalidCandidate, c.ID, err)
	}
	if ctx.MaxDistanceKm != nil && distance > *ctx.MaxDistanceKm {
		return ReasonDistance, distance, nil
	}

	if ctx.MaxPrice != nil && c.StartingPrice != nil && *c.StartingPrice > *ctx.MaxPrice {
		return ReasonPrice, distance, nil
	}
	return "", distance, nil
}

func skillMatches(c models.CandidateWorker, ctx models.SearchContext) bool {
	if c.PrimarySkill != ctx.RequiredSkill {
		return false
	}
	if len(ctx.SubSkills) == 0 {
		return true
	}

	have := make(map[string]struct{}, len(c.SubSkills))
	for _, s := range c.SubSkills {
		have[s] = struct{}{}
	}

	switch ctx.SubSkillMatch {
	case models.SubSkillMatchAll:
		for _, s := range ctx.SubSkills {
			if _, ok := have[s]; !ok {
				return false
			}
		}
		return true
	case models.SubSkillMatchAny:
		for _, s := range ctx.SubSkills {
			if _, ok := have[s]; ok {
				return true
			}
		}
	}
	return false
}

// ValidateContext rejects a search context the filter cannot evaluate. A sub-skill
// filter must state its match mode explicitly.
func ValidateContext(ctx models.SearchContext) error {
	if ctx.Now.IsZero() {
		return fmt.Errorf("%w: now is required", models.ErrInvalidSearchContext)
	}
	if ctx.RequiredSkill == "" {
		return fmt.Errorf("%w: requiredSkill is required", models.ErrInvalidSearchContext)
	}
	if err := geo.Validate(ctx.CustomerLocation); err != nil {
		return fmt.Errorf("%w: customerLocation: %w", models.ErrInvalidSearchContext, err)
	}
	if len(ctx.SubSkills) > 0 || ctx.SubSkillMatch != "" {
		if err := ctx.SubSkillMatch.Validate(); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidSearchContext, err)
		}
	}
	if ctx.MaxDistanceKm != nil && !nonNegative(*ctx.MaxDistanceKm) {
		return fmt.Errorf("%w: maxDistanceKm %v", models.ErrInvalidSearchContext, *ctx.MaxDistanceKm)
	}
	if ctx.MaxPrice != nil && !nonNegative(*ctx.MaxPrice) {
		return fmt.Errorf("%w: maxPrice %v", models.ErrInvalidSearchContext, *ctx.MaxPrice)
	}
	return nil
}

func validateCandidate(c models.CandidateWorker) error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", models.ErrInvalidCandidate)
	}
	if err := geo.Validate(c.Location); err != nil {
		return fmt.Errorf("%w: candidate %s: %w", models.ErrInvalidCandidate, c.ID, err)
	}
	if c.StartingPrice != nil && !nonNegative(*c.StartingPrice) {
		return fmt.Errorf("%w: candidate %s: startingPrice %v", models.ErrInvalidCandidate, c.ID, *c.StartingPrice)
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

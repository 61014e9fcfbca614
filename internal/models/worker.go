// internal/models/worker.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSearchContext = errors.New("invalid search context")
	ErrInvalidCandidate     = errors.New("invalid candidate")
)

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SubSkillMatch controls how SearchContext.SubSkills are matched.
type SubSkillMatch string

const (
	SubSkillMatchAny SubSkillMatch = "ANY"
	SubSkillMatchAll SubSkillMatch = "ALL"
)

func (m SubSkillMatch) Validate() error {
	switch m {
	case SubSkillMatchAny, SubSkillMatchAll:
		return nil
	}
	return fmt.Errorf("%w: sub-skill match %q", ErrUnknownEnum, string(m))
}

func (m *SubSkillMatch) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*m = ""
		return nil
	}
	v := SubSkillMatch(strings.ToUpper(raw))
	if err := v.Validate(); err != nil {
		return err
	}
	*m = v
	return nil
}

// SearchContext is the read-only input of one filter/rank pass.
type SearchContext struct {
	CustomerLocation GeoPoint      `json:"customerLocation"`
	RequiredSkill    string        `json:"requiredSkill"`
	SubSkills        []string      `json:"subSkills,omitempty"`
	SubSkillMatch    SubSkillMatch `json:"subSkillMatch,omitempty"`
	MaxDistanceKm    *float64      `json:"maxDistanceKm,omitempty"`
	MaxPrice         *float64      `json:"maxPrice,omitempty"`
	Now              time.Time     `json:"now"`
}

// CandidateWorker is a caller-owned snapshot of a worker. DistanceKm is only set on
// the copies returned by the eligibility filter.
type CandidateWorker struct {
	ID                 string             `json:"id"`
	Location           GeoPoint           `json:"location"`
	PrimarySkill       string             `json:"primarySkill"`
	SubSkills          []string           `json:"subSkills,omitempty"`
	StartingPrice      *float64           `json:"startingPrice,omitempty"`
	Rating             *float64           `json:"rating,omitempty"`
	ReviewCount        int                `json:"reviewCount"`
	AvgResponseMinutes *float64           `json:"avgResponseMinutes,omitempty"`
	CompletedJobs      int                `json:"completedJobs"`
	ExperienceYears    *float64           `json:"experienceYears,omitempty"`
	Availability       WorkerAvailability `json:"availability"`
	DistanceKm         *float64           `json:"distanceKm,omitempty"`
}

// Signal names used in MatchedSignals.Defaulted.
const (
	SignalDistance       = "distance"
	SignalRating         = "rating"
	SignalExperience     = "experience"
	SignalResponsiveness = "responsiveness"
	SignalPriceFit       = "priceFit"
)

// MatchedSignals holds the normalized [0,1] value of every ranking signal and the
// names of the signals that fell back to a neutral default.
type MatchedSignals struct {
	Distance       float64  `json:"distance"`
	Rating         float64  `json:"rating"`
	Experience     float64  `json:"experience"`
	Responsiveness float64  `json:"responsiveness"`
	PriceFit       float64  `json:"priceFit"`
	Defaulted      []string `json:"defaulted,omitempty"`
}

// RankedResult is one entry of a ranking; slice index 0 is the best match.
type RankedResult struct {
	WorkerID       string         `json:"workerId"`
	CompositeScore float64        `json:"compositeScore"`
	DistanceKm     float64        `json:"distanceKm"`
	MatchedSignals MatchedSignals `json:"matchedSignals"`
}

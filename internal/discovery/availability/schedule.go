package availability

import (
	"fmt"
	"sort"
	"time"

	"worker-discovery/internal/models"
)

// ValidateSchedule checks a full working-hours declaration before it is stored:
// every rule must have start < end and a weekday may appear only once. Rules that
// cross midnight are rejected; use SplitOvernight to express them.
func ValidateSchedule(rules []models.WorkingHoursRule) error {
	seen := make(map[models.Weekday]bool, len(rules))
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("%w: workingHours[%d]: %v", ErrInvalidInput, i, err)
		}
		if seen[r.Day] {
			return fmt.Errorf("%w: workingHours[%d]: duplicate rule for %s", ErrInvalidInput, i, r.Day)
		}
		seen[r.Day] = true
	}
	return nil
}

// SplitOvernight turns a shift on day from start to end into working-hours rules.
// A shift with start > end ends on the following day and is split into
// start-24:00 on day plus 00:00-end on the next day.
func SplitOvernight(day models.Weekday, start, end models.TimeOfDay) ([]models.WorkingHoursRule, error) {
	if err := day.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !start.Valid() || !end.Valid() || start == models.EndOfDay {
		return nil, fmt.Errorf("%w: shift %s-%s out of range", ErrInvalidInput, start, end)
	}
	if start == end {
		return nil, fmt.Errorf("%w: shift %s-%s is empty", ErrInvalidInput, start, end)
	}
	if start < end {
		return []models.WorkingHoursRule{{Day: day, Start: start, End: end}}, nil
	}

	rules := []models.WorkingHoursRule{{Day: day, Start: start, End: models.EndOfDay}}
	if end > 0 {
		next, err := day.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		rules = append(rules, models.WorkingHoursRule{Day: next, Start: 0, End: end})
	}
	return rules, nil
}

// BusyOverride is a time-bounded manual BUSY status.
type BusyOverride struct {
	Until  time.Time
	Reason models.BusyReason
}

// NewBusyOverride validates an override at the moment it is set: until must be in
// the future relative to now.
func NewBusyOverride(now, until time.Time, reason models.BusyReason) (BusyOverride, error) {
	if now.IsZero() || until.IsZero() {
		return BusyOverride{}, fmt.Errorf("%w: override times must be set", ErrInvalidInput)
	}
	if !until.After(now) {
		return BusyOverride{}, fmt.Errorf("%w: busyUntil %s is not after %s", ErrInvalidInput,
			until.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	if err := reason.Validate(); err != nil {
		return BusyOverride{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return BusyOverride{Until: until, Reason: reason}, nil
}

// Apply returns a copy of av carrying the override.
func (o BusyOverride) Apply(av models.WorkerAvailability) models.WorkerAvailability {
	until := o.Until
	reason := o.Reason
	av.BusyUntil = &until
	av.BusyReason = &reason
	return av
}

// NextTransition returns the earliest instant after now at which the resolved status
// of av changes, or nil when it never changes on its own (manual mode, or auto-mode
// without any rule and no active override).
func NextTransition(av models.WorkerAvailability, now time.Time) (*time.Time, error) {
	current, err := ResolveStatus(av, now)
	if err != nil {
		return nil, err
	}
	if !av.AutoModeEnabled {
		return nil, nil
	}
	if current == models.StatusBusy {
		until := *av.BusyUntil
		return &until, nil
	}

	for _, t := range boundaries(av.WorkingHours, now) {
		if scheduleStatus(av.WorkingHours, t) != current {
			return &t, nil
		}
	}
	return nil, nil
}

// boundaries lists every rule start and end strictly after now over the next week,
// in chronological order.
func boundaries(rules []models.WorkingHoursRule, now time.Time) []time.Time {
	if len(rules) == 0 {
		return nil
	}
	y, m, d := now.Date()
	loc := now.Location()

	var out []time.Time
	for offset := 0; offset <= 7; offset++ {
		day := models.WeekdayOf(time.Date(y, m, d+offset, 0, 0, 0, 0, loc))
		for _, r := range rules {
			if r.Day != day {
				continue
			}
			for _, minute := range []models.TimeOfDay{r.Start, r.End} {
				t := time.Date(y, m, d+offset, 0, int(minute), 0, 0, loc)
				if t.After(now) {
					out = append(out, t)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// internal/models/availability.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownEnum is returned when a status, reason or weekday value is not recognised.
var ErrUnknownEnum = errors.New("unknown enum value")

// AvailabilityStatus is the live availability of a worker.
type AvailabilityStatus string

const (
	StatusOnline  AvailabilityStatus = "ONLINE"
	StatusBusy    AvailabilityStatus = "BUSY"
	StatusOffline AvailabilityStatus = "OFFLINE"
)

func (s AvailabilityStatus) Validate() error {
	switch s {
	case StatusOnline, StatusBusy, StatusOffline:
		return nil
	}
	return fmt.Errorf("%w: availability status %q", ErrUnknownEnum, string(s))
}

func (s *AvailabilityStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := AvailabilityStatus(strings.ToUpper(raw))
	if err := v.Validate(); err != nil {
		return err
	}
	*s = v
	return nil
}

// BusyReason explains a busy-until override.
type BusyReason string

const (
	BusyReasonOnJob    BusyReason = "ON_JOB"
	BusyReasonBreak    BusyReason = "BREAK"
	BusyReasonPersonal BusyReason = "PERSONAL"
	BusyReasonOther    BusyReason = "OTHER"
)

func (r BusyReason) Validate() error {
	switch r {
	case BusyReasonOnJob, BusyReasonBreak, BusyReasonPersonal, BusyReasonOther:
		return nil
	}
	return fmt.Errorf("%w: busy reason %q", ErrUnknownEnum, string(r))
}

func (r *BusyReason) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := BusyReason(strings.ToUpper(raw))
	if err := v.Validate(); err != nil {
		return err
	}
	*r = v
	return nil
}

// Weekday is a day-of-week key for working hours rules.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

var weekdayByTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return weekdayByTime[t.Weekday()]
}

// TimeWeekday converts back to the standard library weekday.
func (d Weekday) TimeWeekday() (time.Weekday, error) {
	for tw, w := range weekdayByTime {
		if w == d {
			return tw, nil
		}
	}
	return 0, fmt.Errorf("%w: weekday %q", ErrUnknownEnum, string(d))
}

// Next returns the following day, wrapping Sunday to Monday.
func (d Weekday) Next() (Weekday, error) {
	tw, err := d.TimeWeekday()
	if err != nil {
		return "", err
	}
	return weekdayByTime[(tw+1)%7], nil
}

func (d Weekday) Validate() error {
	_, err := d.TimeWeekday()
	return err
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Weekday(strings.ToUpper(raw))
	if err := v.Validate(); err != nil {
		return err
	}
	*d = v
	return nil
}

// TimeOfDay is a local wall-clock time expressed in minutes since midnight.
// EndOfDay (24:00) is only meaningful as a rule end.
type TimeOfDay int

const (
	MinutesPerDay           = 24 * 60
	EndOfDay      TimeOfDay = MinutesPerDay
)

// ParseTimeOfDay parses "HH:MM" in 24h format. "24:00" is accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= EndOfDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// WorkingHoursRule declares the [Start, End) window a worker is on shift for one weekday.
type WorkingHoursRule struct {
	Day   Weekday   `json:"day"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Contains reports whether clock falls in [Start, End).
func (r WorkingHoursRule) Contains(clock TimeOfDay) bool {
	return clock >= r.Start && clock < r.End
}

// WorkerAvailability is the per-worker availability record. When AutoModeEnabled is
// true Status is informational only; the effective status is always recomputed.
type WorkerAvailability struct {
	Status          AvailabilityStatus  `json:"status,omitempty"`
	AutoModeEnabled bool                `json:"autoModeEnabled"`
	ManualStatus    *AvailabilityStatus `json:"manualStatus,omitempty"`
	BusyUntil       *time.Time          `json:"busyUntil,omitempty"`
	BusyReason      *BusyReason         `json:"busyReason,omitempty"`
	WorkingHours    []WorkingHoursRule  `json:"workingHours,omitempty"`
}

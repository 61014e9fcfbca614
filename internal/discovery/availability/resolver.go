// Package availability resolves a worker's effective status from auto-mode schedule
// rules, busy-until overrides and the manual status.
package availability

import (
	"errors"
	"fmt"
	"time"

	"worker-discovery/internal/models"
)

var ErrInvalidInput = errors.New("invalid availability input")

// ResolveStatus returns the effective status of av at now. now must already be in the
// worker's local time zone. It never mutates av; an expired busy override is simply
// ignored on every call.
func ResolveStatus(av models.WorkerAvailability, now time.Time) (models.AvailabilityStatus, error) {
	if now.IsZero() {
		return "", fmt.Errorf("%w: evaluation time is zero", ErrInvalidInput)
	}
	if err := validate(av); err != nil {
		return "", err
	}

	if !av.AutoModeEnabled {
		if av.ManualStatus == nil {
			return models.StatusOffline, nil
		}
		return *av.ManualStatus, nil
	}

	if av.BusyUntil != nil && now.Before(*av.BusyUntil) {
		return models.StatusBusy, nil
	}

	return scheduleStatus(av.WorkingHours, now), nil
}

// IsOnline is a shorthand used by the eligibility filter.
func IsOnline(av models.WorkerAvailability, now time.Time) (bool, error) {
	status, err := ResolveStatus(av, now)
	if err != nil {
		return false, err
	}
	switch status {
	case models.StatusOnline:
		return true, nil
	case models.StatusBusy, models.StatusOffline:
		return false, nil
	}
	return false, fmt.Errorf("%w: unhandled status %q", ErrInvalidInput, status)
}

func scheduleStatus(rules []models.WorkingHoursRule, now time.Time) models.AvailabilityStatus {
	day := models.WeekdayOf(now)
	clock := models.ClockOf(now)
	for _, r := range rules {
		if r.Day == day && r.Contains(clock) {
			return models.StatusOnline
		}
	}
	return models.StatusOffline
}

func validate(av models.WorkerAvailability) error {
	if av.Status != "" {
		if err := av.Status.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if av.ManualStatus != nil {
		if err := av.ManualStatus.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if av.BusyReason != nil {
		if err := av.BusyReason.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if av.BusyUntil != nil && av.BusyUntil.IsZero() {
		return fmt.Errorf("%w: busyUntil is set but zero", ErrInvalidInput)
	}
	for i, r := range av.WorkingHours {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("%w: workingHours[%d]: %v", ErrInvalidInput, i, err)
		}
	}
	return nil
}

func validateRule(r models.WorkingHoursRule) error {
	if err := r.Day.Validate(); err != nil {
		return err
	}
	if !r.Start.Valid() || !r.End.Valid() || r.Start == models.EndOfDay {
		return fmt.Errorf("%s: time out of range (%s-%s)", r.Day, r.Start, r.End)
	}
	if r.Start >= r.End {
		return fmt.Errorf("%s: start %s must be before end %s", r.Day, r.Start, r.End)
	}
	return nil
}

package resolveworkerstatus

import (
	"context"
	"testing"
	"time"

	"worker-discovery/internal/common/errors"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/availability"
	"worker-discovery/internal/models"
	"worker-discovery/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: time.Second,
	}
}

func createTestHandler(t *testing.T, config *Config) *Handler {
	t.Helper()
	if config == nil {
		config = createTestConfig()
	}
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewHandler(config, validation.NewValidator(reg), nil, logger.NewTestLogger(t))
}

// 2024-01-01 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func weekdayShift() []models.WorkingHoursRule {
	return []models.WorkingHoursRule{
		{Day: models.Monday, Start: 9 * 60, End: 17 * 60},
		{Day: models.Tuesday, Start: 9 * 60, End: 17 * 60},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	busy := models.StatusBusy
	online := models.StatusOnline
	lunch := monday(13, 0)

	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "auto mode inside working hours",
			input: &Input{Availability: models.WorkerAvailability{AutoModeEnabled: true, WorkingHours: weekdayShift()}, Now: monday(10, 0)},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.StatusOnline, output.Status)
				assert.True(t, output.Online)
				require.NotNil(t, output.NextTransition)
				assert.Equal(t, monday(17, 0), *output.NextTransition)
			},
		},
		{
			name:  "auto mode after hours",
			input: &Input{Availability: models.WorkerAvailability{AutoModeEnabled: true, WorkingHours: weekdayShift()}, Now: monday(20, 0)},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.StatusOffline, output.Status)
				assert.False(t, output.Online)
				require.NotNil(t, output.NextTransition)
				assert.Equal(t, monday(9, 0).AddDate(0, 0, 1), *output.NextTransition)
			},
		},
		{
			name: "busy override until lunch",
			input: &Input{
				Availability: models.WorkerAvailability{AutoModeEnabled: true, WorkingHours: weekdayShift(), BusyUntil: &lunch},
				Now:          monday(11, 0),
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.StatusBusy, output.Status)
				require.NotNil(t, output.NextTransition)
				assert.Equal(t, lunch, *output.NextTransition)
			},
		},
		{
			name:  "manual busy has no transition",
			input: &Input{Availability: models.WorkerAvailability{ManualStatus: &busy, WorkingHours: weekdayShift()}, Now: monday(10, 0)},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.StatusBusy, output.Status)
				assert.Nil(t, output.NextTransition)
			},
		},
		{
			name:  "manual online",
			input: &Input{Availability: models.WorkerAvailability{ManualStatus: &online}, Now: monday(3, 0)},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.Online)
			},
		},
	}

	handler := createTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidSchedule(t *testing.T) {
	handler := createTestHandler(t, nil)

	input := &Input{
		Availability: models.WorkerAvailability{
			AutoModeEnabled: true,
			WorkingHours:    []models.WorkingHoursRule{{Day: models.Monday, Start: 22 * 60, End: 6 * 60}},
		},
		Now: monday(10, 0),
	}
	_, err := handler.Execute(context.Background(), input)
	require.ErrorIs(t, err, availability.ErrInvalidInput)
	assert.Equal(t, errors.ErrCodeInvalidAvailability, errors.FromDomain(err).Code)
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler := createTestHandler(t, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := handler.Execute(ctx, &Input{Availability: models.WorkerAvailability{AutoModeEnabled: true}, Now: monday(10, 0)})
	assert.Equal(t, errors.ErrCodeJobTimeout, errors.FromDomain(err).Code)
}

func TestHandler_DecodeVariables(t *testing.T) {
	handler := createTestHandler(t, nil)

	var input Input
	err := handler.validator.Decode(TaskType, `{
		"availability": {"autoModeEnabled": true, "workingHours": [{"day": "MON", "start": "09:00", "end": "17:00"}]},
		"now": "2024-01-01T10:00:00Z"
	}`, &input)
	require.NoError(t, err)
	assert.True(t, monday(10, 0).Equal(input.Now))
	require.Len(t, input.Availability.WorkingHours, 1)
	assert.Equal(t, models.TimeOfDay(9*60), input.Availability.WorkingHours[0].Start)

	err = handler.validator.Decode(TaskType, `{"availability": {"autoModeEnabled": false, "manualStatus": "SLEEPING"}, "now": "2024-01-01T10:00:00Z"}`, &input)
	assert.Equal(t, errors.ErrCodeParseError, errors.FromDomain(err).Code)
}

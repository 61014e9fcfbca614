package searchworkers

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"worker-discovery/internal/common/errors"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/eligibility"
	"worker-discovery/internal/discovery/ranking"
	"worker-discovery/internal/models"
	"worker-discovery/pkg/registry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:         time.Second,
		DefaultPageSize: 3,
		MaxItems:        5,
	}
}

func createTestHandler(t *testing.T, config *Config) *Handler {
	t.Helper()
	if config == nil {
		config = createTestConfig()
	}
	holder, err := ranking.NewHolder(ranking.DefaultConfig())
	require.NoError(t, err)
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewHandler(config, eligibility.NewProcessor(), ranking.NewEngine(holder),
		validation.NewValidator(reg), nil, logger.NewTestLogger(t))
}

var customer = models.GeoPoint{Lat: 51.5, Lng: -0.12}

// pool returns n online plumbers, candidate i sitting i+1 km north of the customer.
func pool(n int) []models.CandidateWorker {
	online := models.StatusOnline
	out := make([]models.CandidateWorker, n)
	for i := range out {
		out[i] = models.CandidateWorker{
			ID:           fmt.Sprintf("w%02d", i),
			Location:     models.GeoPoint{Lat: customer.Lat + float64(i+1)/111.195, Lng: customer.Lng},
			PrimarySkill: "plumbing",
			Availability: models.WorkerAvailability{ManualStatus: &online},
		}
	}
	return out
}

func searchContext() models.SearchContext {
	return models.SearchContext{
		CustomerLocation: customer,
		RequiredSkill:    "plumbing",
		Now:              time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func resultIDs(results []models.RankedResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.WorkerID
	}
	return ids
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		page, size     int
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name: "defaults to first page of default size",
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.Page)
				assert.Equal(t, 3, output.Size)
				assert.Equal(t, []string{"w00", "w01", "w02"}, resultIDs(output.Results))
				assert.True(t, output.HasMore)
			},
		},
		{
			name: "second page",
			page: 2, size: 3,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"w03", "w04", "w05"}, resultIDs(output.Results))
				assert.True(t, output.HasMore)
			},
		},
		{
			name: "size capped by max items",
			page: 1, size: 100,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 5, output.Size)
				assert.Len(t, output.Results, 5)
			},
		},
		{
			name: "last partial page",
			page: 2, size: 5,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"w05", "w06"}, resultIDs(output.Results))
				assert.False(t, output.HasMore)
			},
		},
		{
			name: "page past the end",
			page: 9, size: 5,
			validateOutput: func(t *testing.T, output *Output) {
				assert.NotNil(t, output.Results)
				assert.Empty(t, output.Results)
				assert.False(t, output.HasMore)
			},
		},
	}

	handler := createTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{
				Candidates: pool(7),
				Context:    searchContext(),
				Page:       tt.page,
				Size:       tt.size,
			})
			require.NoError(t, err)
			assert.Equal(t, 7, output.Total)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_HugePage(t *testing.T) {
	handler := createTestHandler(t, nil)

	var output *Output
	var err error
	require.NotPanics(t, func() {
		output, err = handler.Execute(context.Background(), &Input{
			Candidates: pool(3),
			Context:    searchContext(),
			Page:       math.MaxInt64/2 + 2,
			Size:       2,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, output.Total)
	assert.NotNil(t, output.Results)
	assert.Empty(t, output.Results)
	assert.False(t, output.HasMore)
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		page, size, total int
		from, to          int
	}{
		{page: 1, size: 3, total: 7, from: 0, to: 3},
		{page: 3, size: 3, total: 7, from: 6, to: 7},
		{page: 4, size: 3, total: 7, from: 7, to: 7},
		{page: 1, size: 5, total: 0, from: 0, to: 0},
		{page: math.MaxInt64, size: math.MaxInt64, total: 7, from: 7, to: 7},
		{page: 1, size: math.MaxInt64, total: 7, from: 0, to: 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d size=%d total=%d", tt.page, tt.size, tt.total), func(t *testing.T) {
			from, to := pageBounds(tt.page, tt.size, tt.total)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestHandler_Execute_FiltersBeforeRanking(t *testing.T) {
	handler := createTestHandler(t, nil)

	candidates := pool(4)
	offline := models.StatusOffline
	candidates[0].Availability.ManualStatus = &offline
	candidates[1].PrimarySkill = "painting"

	output, err := handler.Execute(context.Background(), &Input{Candidates: candidates, Context: searchContext(), Size: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"w02", "w03"}, resultIDs(output.Results))
	assert.Equal(t, 2, output.Total)
	assert.Equal(t, 4, output.Report.Total)
	assert.Equal(t, 1, output.Report.Rejected[eligibility.ReasonStatus])
	assert.Equal(t, 1, output.Report.Rejected[eligibility.ReasonSkill])
	assert.Equal(t, ranking.DefaultConfig().Version, output.ConfigVersion)

	_, err = uuid.Parse(output.SearchID)
	assert.NoError(t, err)
}

func TestHandler_Execute_SearchIDIsUnique(t *testing.T) {
	handler := createTestHandler(t, nil)
	input := &Input{Candidates: pool(2), Context: searchContext()}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.NotEqual(t, first.SearchID, second.SearchID)
	assert.Equal(t, resultIDs(first.Results), resultIDs(second.Results))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidCoordinate(t *testing.T) {
	handler := createTestHandler(t, nil)

	ctx := searchContext()
	ctx.CustomerLocation = models.GeoPoint{Lat: 95, Lng: 0}

	_, err := handler.Execute(context.Background(), &Input{Candidates: pool(1), Context: ctx})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidSearchContext, errors.FromDomain(err).Code)
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler := createTestHandler(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, &Input{Candidates: pool(2), Context: searchContext()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandler_DecodeRejectsBadPage(t *testing.T) {
	handler := createTestHandler(t, nil)

	var input Input
	err := handler.validator.Decode(TaskType, `{
		"candidates": [],
		"context": {"customerLocation": {"lat": 1, "lng": 1}, "requiredSkill": "plumbing", "now": "2024-01-01T10:00:00Z"},
		"page": 0
	}`, &input)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.FromDomain(err).Code)
}

func TestHandler_DecodeRejectsHugePage(t *testing.T) {
	handler := createTestHandler(t, nil)

	var input Input
	err := handler.validator.Decode(TaskType, `{
		"candidates": [],
		"context": {"customerLocation": {"lat": 1, "lng": 1}, "requiredSkill": "plumbing", "now": "2024-01-01T10:00:00Z"},
		"page": 4611686018427387905,
		"size": 2
	}`, &input)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.FromDomain(err).Code)
}

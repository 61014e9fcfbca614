package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"worker-discovery/internal/discovery/availability"
	"worker-discovery/internal/discovery/geo"
	"worker-discovery/internal/discovery/ranking"
	"worker-discovery/internal/discovery/weights"
	"worker-discovery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"search context", fmt.Errorf("%w: now is required", models.ErrInvalidSearchContext), ErrCodeInvalidSearchContext, false},
		{
			name:      "candidate wrapping coordinate",
			err:       fmt.Errorf("%w: candidate w-1: %w", models.ErrInvalidCandidate, geo.ErrInvalidCoordinate),
			code:      ErrCodeInvalidCandidate,
			retryable: false,
		},
		{"availability", fmt.Errorf("candidate w-1: %w", availability.ErrInvalidInput), ErrCodeInvalidAvailability, false},
		{"coordinate", geo.ErrInvalidCoordinate, ErrCodeInvalidCoordinate, false},
		{"ranking config", fmt.Errorf("%w: all weights are zero", ranking.ErrInvalidConfig), ErrCodeInvalidRankingConfig, false},
		{"weights store", fmt.Errorf("%w: connection refused", weights.ErrLoadFailed), ErrCodeWeightsLoadFailed, true},
		{"deadline", context.DeadlineExceeded, ErrCodeJobTimeout, true},
		{"anything else", stderrors.New("boom"), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromDomain(tt.err)
			require.NotNil(t, stdErr)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, tt.err.Error(), stdErr.Details)
			assert.ErrorIs(t, stdErr, tt.err, "cause stays reachable")
		})
	}

	assert.Nil(t, FromDomain(nil))

	existing := NewParseError(stderrors.New("unexpected EOF"))
	assert.Same(t, existing, FromDomain(fmt.Errorf("decode: %w", existing)))
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable keeps its budget", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewWeightsLoadFailedError(stderrors.New("db down")))
		assert.Equal(t, "WEIGHTS_LOAD_FAILED", bpmnErr.Code)
		assert.Equal(t, 3, bpmnErr.Retries)
		assert.True(t, bpmnErr.Retryable)
	})

	t.Run("validation is thrown without retries", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewInputValidationError([]string{"context: requiredSkill is required"}))
		assert.Equal(t, "INPUT_VALIDATION_FAILED", bpmnErr.Code)
		assert.Zero(t, bpmnErr.Retries)

		vars := bpmnErr.ToErrorVariables()
		assert.Equal(t, "INPUT_VALIDATION_FAILED", vars["originalErrorCode"])
		assert.Equal(t, []string{"context: requiredSkill is required"}, vars["violations"])
		assert.Equal(t, false, vars["retryable"])
	})
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidCandidate))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeWeightsLoadFailed))
	assert.Equal(t, "INPUT", GetErrorCategory(ErrCodeParseError))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeJobTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidCoordinate))
}

// Package errors maps discovery failures onto structured errors that job handlers
// can throw to the workflow engine.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"worker-discovery/internal/discovery/availability"
	"worker-discovery/internal/discovery/geo"
	"worker-discovery/internal/discovery/ranking"
	"worker-discovery/internal/discovery/weights"
	"worker-discovery/internal/models"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

// Input errors. None of these are retryable: the same job variables fail again.
const (
	ErrCodeParseError           ErrorCode = "PARSE_ERROR"
	ErrCodeInputValidation      ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeInvalidSearchContext ErrorCode = "INVALID_SEARCH_CONTEXT"
	ErrCodeInvalidCandidate     ErrorCode = "INVALID_CANDIDATE"
	ErrCodeInvalidAvailability  ErrorCode = "INVALID_AVAILABILITY"
	ErrCodeInvalidCoordinate    ErrorCode = "INVALID_COORDINATE"
)

// Configuration and infrastructure errors.
const (
	ErrCodeInvalidRankingConfig ErrorCode = "INVALID_RANKING_CONFIG"
	ErrCodeWeightsLoadFailed    ErrorCode = "WEIGHTS_LOAD_FAILED"
	ErrCodeJobTimeout           ErrorCode = "JOB_TIMEOUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Job variables could not be decoded", err, false)
}

// NewInputValidationError reports job variables rejected by the activity input schema.
func NewInputValidationError(violations []string) *StandardError {
	e := newError(ErrCodeInputValidation, "Job variables failed schema validation", nil, false)
	e.Details = strings.Join(violations, "; ")
	e.Metadata = map[string]interface{}{"violations": violations}
	return e
}

func NewInvalidSearchContextError(err error) *StandardError {
	return newError(ErrCodeInvalidSearchContext, "Search context is invalid", err, false)
}

func NewInvalidCandidateError(err error) *StandardError {
	return newError(ErrCodeInvalidCandidate, "Candidate worker data is invalid", err, false)
}

func NewInvalidAvailabilityError(err error) *StandardError {
	return newError(ErrCodeInvalidAvailability, "Worker availability data is invalid", err, false)
}

func NewInvalidCoordinateError(err error) *StandardError {
	return newError(ErrCodeInvalidCoordinate, "Coordinate is out of range", err, false)
}

func NewInvalidRankingConfigError(err error) *StandardError {
	return newError(ErrCodeInvalidRankingConfig, "Ranking configuration rejected", err, false)
}

func NewWeightsLoadFailedError(err error) *StandardError {
	return newError(ErrCodeWeightsLoadFailed, "Ranking weights could not be loaded", err, true)
}

func NewJobTimeoutError(err error) *StandardError {
	return newError(ErrCodeJobTimeout, "Job exceeded its timeout", err, true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// FromDomain classifies an error returned by the discovery packages. Candidate and
// search-context errors win over the coordinate or availability error they wrap.
func FromDomain(err error) *StandardError {
	var stdErr *StandardError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, models.ErrInvalidSearchContext):
		return NewInvalidSearchContextError(err)
	case stderrors.Is(err, models.ErrInvalidCandidate):
		return NewInvalidCandidateError(err)
	case stderrors.Is(err, availability.ErrInvalidInput):
		return NewInvalidAvailabilityError(err)
	case stderrors.Is(err, geo.ErrInvalidCoordinate):
		return NewInvalidCoordinateError(err)
	case stderrors.Is(err, ranking.ErrInvalidConfig):
		return NewInvalidRankingConfigError(err)
	case stderrors.Is(err, weights.ErrLoadFailed):
		return NewWeightsLoadFailedError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewJobTimeoutError(err)
	}
	return NewInternalError(err)
}

// ==========================
// 4. Mapping and Retry Policy
// ==========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeWeightsLoadFailed:
		return 3
	case ErrCodeJobTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeParseError, ErrCodeInputValidation:
		return "INPUT"
	case ErrCodeInvalidSearchContext, ErrCodeInvalidCandidate, ErrCodeInvalidAvailability, ErrCodeInvalidCoordinate:
		return "VALIDATION"
	case ErrCodeInvalidRankingConfig, ErrCodeWeightsLoadFailed:
		return "CONFIGURATION"
	case ErrCodeJobTimeout:
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}

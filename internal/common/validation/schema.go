package validation

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	apperrors "worker-discovery/internal/common/errors"
	"worker-discovery/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns "field: message" lines in a stable order.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateJSON validates payload against schema. Both may be Go values (maps,
// structs) or raw JSON documents given as []byte.
func ValidateJSON(schema, payload interface{}) (*ValidationResult, error) {
	compiled, err := Compile(schema)
	if err != nil {
		return nil, err
	}
	return validate(compiled, payload)
}

// Compile checks that schema is a usable JSON schema.
func Compile(schema interface{}) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(loader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

func loader(v interface{}) gojsonschema.JSONLoader {
	if raw, ok := v.([]byte); ok {
		return gojsonschema.NewBytesLoader(raw)
	}
	return gojsonschema.NewGoLoader(v)
}

func validate(schema *gojsonschema.Schema, payload interface{}) (*ValidationResult, error) {
	result, err := schema.Validate(loader(payload))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

// Validator validates job variables against the input schema registered for their
// task type. Schemas are compiled once, on first use.
type Validator struct {
	reg *registry.ActivityRegistry

	mu       sync.Mutex
	compiled map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) *Validator {
	return &Validator{reg: reg, compiled: make(map[string]*gojsonschema.Schema)}
}

// ValidateInput validates raw job variables for taskType.
func (v *Validator) ValidateInput(taskType string, variables []byte) (*ValidationResult, error) {
	schema, err := v.schema(taskType)
	if err != nil {
		return nil, err
	}
	return validate(schema, variables)
}

func (v *Validator) schema(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[taskType]; ok {
		return s, nil
	}
	activity, err := v.reg.Lookup(taskType)
	if err != nil {
		return nil, err
	}
	s, err := Compile(activity.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", taskType, err)
	}
	v.compiled[taskType] = s
	return s, nil
}

// Decode validates raw job variables for taskType and unmarshals them into out.
// Schema violations become INPUT_VALIDATION_FAILED, malformed JSON or values the
// domain types refuse become PARSE_ERROR.
func (v *Validator) Decode(taskType, variables string, out interface{}) error {
	result, err := v.ValidateInput(taskType, []byte(variables))
	if err != nil {
		if stderrors.Is(err, registry.ErrUnknownTaskType) {
			return apperrors.NewInternalError(err)
		}
		return apperrors.NewParseError(err)
	}
	if !result.Valid {
		return apperrors.NewInputValidationError(result.GetErrorMessages())
	}
	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return apperrors.NewParseError(err)
	}
	return nil
}

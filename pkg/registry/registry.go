package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrUnknownTaskType = errors.New("unknown task type")

//go:embed activity-registry.json
var defaultRegistry []byte

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return Parse(defaultRegistry)
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Check enforces unique IDs and task types and that every activity has an input schema.
func (r *ActivityRegistry) Check() error {
	ids := make(map[string]struct{}, len(r.Activities))
	types := make(map[string]struct{}, len(r.Activities))
	for i, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %d: id and taskType are required", i)
		}
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("activity %s: duplicate id", a.ID)
		}
		if _, dup := types[a.TaskType]; dup {
			return fmt.Errorf("activity %s: duplicate task type %s", a.ID, a.TaskType)
		}
		if len(a.InputSchema) == 0 {
			return fmt.Errorf("activity %s: input schema is empty", a.ID)
		}
		ids[a.ID] = struct{}{}
		types[a.TaskType] = struct{}{}
	}
	return nil
}

func (r *ActivityRegistry) Lookup(taskType string) (Activity, error) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, nil
		}
	}
	return Activity{}, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
}

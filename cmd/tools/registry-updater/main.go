package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"worker-discovery/internal/common/validation"
	"worker-discovery/pkg/registry"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	exportPath := exportCmd.String("path", "configs/activity-registry.json", "Where to write the built-in registry")
	force := exportCmd.Bool("force", false, "Overwrite an existing file")

	updatePath := updateCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	taskType := updateCmd.String("taskType", "", "Task type to update (e.g., search-workers)")
	field := updateCmd.String("field", "", "Field to update (version, displayName, description, timeout, retries)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportRegistry(*exportPath, *force); err != nil {
			fmt.Printf("Error exporting registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in registry to %s\n", *exportPath)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *taskType == "" || *field == "" || *value == "" {
			fmt.Println("Error: taskType, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *taskType, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s, field %s to %s\n", *taskType, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		count, err := validateRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", count)

	default:
		help()
	}
}

func exportRegistry(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists; pass -force to overwrite", path)
	}
	reg, err := registry.Default()
	if err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

func updateActivity(path, taskType, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].TaskType == taskType {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", registry.ErrUnknownTaskType, taskType)
	}

	a := &reg.Activities[idx]
	switch field {
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format("2006-01-02")
	return saveRegistry(reg, path)
}

// validateRegistry loads the file and compiles every input schema.
func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, err
	}
	if len(reg.Activities) == 0 {
		return 0, fmt.Errorf("registry contains no activities")
	}
	for _, a := range reg.Activities {
		if a.DisplayName == "" {
			return 0, fmt.Errorf("activity %s missing required field: displayName", a.ID)
		}
		if _, err := validation.Compile(a.InputSchema); err != nil {
			return 0, fmt.Errorf("activity %s: %w", a.ID, err)
		}
	}
	return len(reg.Activities), nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  export    Write the built-in registry to a file
  update    Update a field of one activity
  validate  Check a registry file and compile its input schemas
  help      Show this help message

Examples:
  registry-updater export -path configs/activity-registry.json
  registry-updater update -taskType search-workers -field timeout -value 20s
  registry-updater validate -path configs/activity-registry.json`)
}

// pkg/registry/schema.go

// Package registry describes the worker fleet in a machine-readable form.
// configs/activity-registry.json is generated from the worker packages by
// cmd/tools/registry-updater, and cmd/tools/worker-generator reads it back
// to scaffold new workers. BPMN modelers use the same file to look up task
// types and variable contracts when wiring service tasks.
package registry

import (
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Fleet categories. Each one is a directory under internal/workers.
const (
	CategoryProposal      = "proposal"
	CategoryDrive         = "drive"
	CategoryIntake        = "intake"
	CategoryCommunication = "communication"
	CategoryAuth          = "auth"
	CategoryDataAccess    = "data-access"
)

// Lifecycle values for Activity.Status.
const (
	StatusPlanned = "planned"
	StatusActive  = "active"
	StatusRetired = "retired"
)

var knownCategories = map[string]bool{
	CategoryProposal:      true,
	CategoryDrive:         true,
	CategoryIntake:        true,
	CategoryCommunication: true,
	CategoryAuth:          true,
	CategoryDataAccess:    true,
}

// ActivityRegistry is the root document of activity-registry.json.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity is one worker in the fleet. ID doubles as the directory name
// under internal/workers/<category>/, and TaskType is what BPMN service
// tasks subscribe to. For this fleet the two are always equal.
type Activity struct {
	ID            string                 `json:"id"`
	DisplayName   string                 `json:"displayName"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	Version       string                 `json:"version"`
	TaskType      string                 `json:"taskType"`
	Status        string                 `json:"status"`
	InputSchema   map[string]interface{} `json:"inputSchema"`
	OutputSchema  map[string]interface{} `json:"outputSchema"`
	ErrorCodes    []string               `json:"errorCodes"`
	Timeout       string                 `json:"timeout"`
	MaxJobsActive int                    `json:"maxJobsActive"`
	Retries       int                    `json:"retries"`
	Workflows     []string               `json:"workflows"`
	Tags          []string               `json:"tags"`
}

// Validate checks the fields the tools depend on. Schemas must compile as
// JSON Schema because the render and validation steps feed them straight
// into gojsonschema at runtime.
func (a *Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("activity is missing an id")
	}
	if a.DisplayName == "" {
		return fmt.Errorf("activity %s: displayName is required", a.ID)
	}
	if a.TaskType == "" {
		return fmt.Errorf("activity %s: taskType is required", a.ID)
	}
	if !knownCategories[a.Category] {
		return fmt.Errorf("activity %s: unknown category %q", a.ID, a.Category)
	}
	if a.Timeout != "" {
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
		}
	}
	if err := compileSchema(a.InputSchema); err != nil {
		return fmt.Errorf("activity %s: inputSchema does not compile: %w", a.ID, err)
	}
	if err := compileSchema(a.OutputSchema); err != nil {
		return fmt.Errorf("activity %s: outputSchema does not compile: %w", a.ID, err)
	}
	return nil
}

func compileSchema(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	return err
}

// cmd/tools/worker-generator/main.go

// worker-generator scaffolds a new worker package from its activity
// registry entry. It emits the standard five-file layout (config, models,
// service, handler, service test) with the input and output structs
// derived from the activity's variable schemas, so a new worker starts
// with the same shape as the rest of the fleet.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"bidbuddy-workers/pkg/registry"
)

type goField struct {
	Name     string
	JSONName string
	Type     string
	Tag      string
}

type workerData struct {
	ID            string
	PackageName   string
	DisplayName   string
	Description   string
	Category      string
	TaskType      string
	Timeout       string
	MaxJobsActive int
	InputFields   []goField
	OutputFields  []goField
	Required      []goField
}

func main() {
	activityID := flag.String("activity", "", "Activity id from the registry (e.g. parse-proposal-filename)")
	outputDir := flag.String("output", "internal/workers", "Root directory for worker packages")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry")
	flag.Parse()

	if *activityID == "" {
		fmt.Println("Usage: worker-generator --activity <id> [--output <dir>] [--registry <path>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/worker-generator/main.go --activity upload-proposal-file")
		os.Exit(1)
	}

	reg, err := registry.Load(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	activity, ok := reg.Find(*activityID)
	if !ok {
		fmt.Printf("Activity %q not found in %s\n", *activityID, *registryPath)
		os.Exit(1)
	}

	data := buildWorkerData(activity)
	workerDir := filepath.Join(*outputDir, activity.Category, activity.ID)

	if _, err := os.Stat(workerDir); err == nil {
		fmt.Printf("Worker directory %s already exists, refusing to overwrite.\n", workerDir)
		os.Exit(1)
	}
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	files := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"service.go":      serviceTemplate,
		"handler.go":      handlerTemplate,
		"service_test.go": testTemplate,
	}

	for name, tmplStr := range files {
		if err := renderFile(filepath.Join(workerDir, name), tmplStr, data); err != nil {
			fmt.Printf("Error generating %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("generated %s\n", filepath.Join(workerDir, name))
	}

	fmt.Printf("\nWorker scaffold written to %s\n", workerDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Fill in ServiceDependencies and any client interfaces in models.go")
	fmt.Println("  2. Implement Execute in service.go")
	fmt.Println("  3. Extend service_test.go past the validation cases")
	fmt.Println("  4. Register the worker in cmd/worker-manager/main.go")
	fmt.Println("  5. Add the package to the fleet table in cmd/tools/registry-updater")
}

func renderFile(path, tmplStr string, data workerData) error {
	funcMap := template.FuncMap{
		"tag": func(key, value string) string {
			return "`" + key + `:"` + value + `"` + "`"
		},
	}

	tmpl, err := template.New(filepath.Base(path)).Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	src := buf.Bytes()
	if formatted, err := format.Source(src); err == nil {
		src = formatted
	} else {
		fmt.Printf("warning: %s did not format cleanly: %v\n", path, err)
	}

	return os.WriteFile(path, src, 0644)
}

func buildWorkerData(activity *registry.Activity) workerData {
	data := workerData{
		ID:            activity.ID,
		PackageName:   strings.ReplaceAll(activity.ID, "-", ""),
		DisplayName:   activity.DisplayName,
		Description:   activity.Description,
		Category:      activity.Category,
		TaskType:      activity.TaskType,
		Timeout:       timeoutLiteral(activity.Timeout),
		MaxJobsActive: activity.MaxJobsActive,
	}
	if data.MaxJobsActive <= 0 {
		data.MaxJobsActive = 5
	}

	required := requiredSet(activity.InputSchema)
	data.InputFields = schemaFields(activity.InputSchema, required, nil)
	// Success is emitted by the template itself.
	data.OutputFields = schemaFields(activity.OutputSchema, nil, map[string]bool{"success": true})

	for _, f := range data.InputFields {
		if required[f.JSONName] && f.Type == "string" {
			data.Required = append(data.Required, f)
		}
	}
	return data
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	out := map[string]bool{}
	raw, ok := schema["required"].([]interface{})
	if !ok {
		return out
	}
	for _, v := range raw {
		if name, ok := v.(string); ok {
			out[name] = true
		}
	}
	return out
}

// schemaFields turns a JSON Schema object into struct fields, sorted by
// json name so regeneration is deterministic.
func schemaFields(schema map[string]interface{}, required, skip map[string]bool) []goField {
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}

	names := make([]string, 0, len(props))
	for name := range props {
		if !skip[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	fields := make([]goField, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		tag := `json:"` + name
		if !required[name] {
			tag += ",omitempty"
		}
		tag += `"`
		fields = append(fields, goField{
			Name:     goName(name),
			JSONName: name,
			Type:     goType(details),
			Tag:      "`" + tag + "`",
		})
	}
	return fields
}

func goName(jsonName string) string {
	if jsonName == "" {
		return jsonName
	}
	name := strings.ToUpper(jsonName[:1]) + jsonName[1:]
	for _, initialism := range []string{"Id", "Url", "Api"} {
		if strings.HasSuffix(name, initialism) {
			name = name[:len(name)-len(initialism)] + strings.ToUpper(initialism)
		}
	}
	return name
}

func goType(details map[string]interface{}) string {
	jsonType, _ := details["type"].(string)
	switch jsonType {
	case "string":
		return "string"
	case "number":
		return "float64"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		if items, ok := details["items"].(map[string]interface{}); ok {
			if itemType, _ := items["type"].(string); itemType == "string" {
				return "[]string"
			}
		}
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

func timeoutLiteral(timeout string) string {
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return "30 * time.Second"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d * time.Minute", d/time.Minute)
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
}

const configTemplate = `// internal/workers/{{ .Category }}/{{ .ID }}/config.go
package {{ .PackageName }}

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          {{ tag "mapstructure" "enabled" }}
	MaxJobsActive int           {{ tag "mapstructure" "max_jobs_active" }}
	Timeout       time.Duration {{ tag "mapstructure" "timeout" }}
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: {{ .MaxJobsActive }},
		Timeout:       {{ .Timeout }},
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
`

const modelsTemplate = `// internal/workers/{{ .Category }}/{{ .ID }}/models.go
package {{ .PackageName }}

import (
	"bidbuddy-workers/internal/common/logger"
)

type Input struct {
{{- if .InputFields }}
{{- range .InputFields }}
	{{ .Name }} {{ .Type }} {{ .Tag }}
{{- end }}
{{- else }}
	// No input schema in the registry yet. Add the job variables here.
{{- end }}
}

type Output struct {
	Success bool ` + "`json:\"success\"`" + `
{{- range .OutputFields }}
	{{ .Name }} {{ .Type }} {{ .Tag }}
{{- end }}
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Logger logger.Logger
}
`

const serviceTemplate = `// internal/workers/{{ .Category }}/{{ .ID }}/service.go
package {{ .PackageName }}

import (
	"context"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
)

type Service struct {
	config *Config
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
	}
}

// Execute runs the {{ .DisplayName }} step.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	// TODO({{ .ID }}): implement the {{ .DisplayName }} step.

	return &Output{
		Success: true,
	}, nil
}

func (s *Service) validate(input *Input) error {
{{- range .Required }}
	if input.{{ .Name }} == "" {
		return validationError("{{ .JSONName }} is required")
	}
{{- end }}
	return nil
}

func validationError(message string) *errors.StandardError {
	return &errors.StandardError{
		Code:      "VALIDATION_FAILED",
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
`

const handlerTemplate = `// internal/workers/{{ .Category }}/{{ .ID }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)

type Handler struct {
	config       *Config
	service      *Service
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	workerLogger := log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config: config,
		service: NewService(ServiceDependencies{
			Logger: workerLogger,
		}, config),
		errorHandler: errors.NewErrorHandler(workerLogger),
		logger:       workerLogger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		parseErr := &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(parseErr)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, parseErr)
		return parseErr
	}

	output, err := h.service.Execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	h.completeJob(ctx, client, job, output)
	return nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(ctx)
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
	})
}

// Execute exposes the {{ .DisplayName }} step for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
`

const testTemplate = `// internal/workers/{{ .Category }}/{{ .ID }}/service_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
)

func createTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(ServiceDependencies{
		Logger: logger.NewTestLogger(t),
	}, DefaultConfig())
}

func validInput() *Input {
	return &Input{
{{- range .Required }}
		{{ .Name }}: "test-{{ .JSONName }}",
{{- end }}
	}
}

func TestExecute_Succeeds(t *testing.T) {
	service := createTestService(t)

	output, err := service.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, output.Success)
}

func TestExecute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(input *Input)
	}{
{{- range .Required }}
		{
			name:   "missing {{ .JSONName }}",
			mutate: func(input *Input) { input.{{ .Name }} = "" },
		},
{{- end }}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := createTestService(t)
			input := validInput()
			tt.mutate(input)

			_, err := service.Execute(context.Background(), input)
			require.Error(t, err)

			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorCode("VALIDATION_FAILED"), stdErr.Code)
		})
	}
}
`

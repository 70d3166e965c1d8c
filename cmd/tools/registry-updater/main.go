// cmd/tools/registry-updater/main.go

// registry-updater regenerates configs/activity-registry.json from the
// worker fleet compiled into this binary. Task types, timeouts and job
// concurrency come straight from the worker packages, so the registry can
// never drift from the code without `validate` noticing. Input and output
// variable schemas are hand-authored: generate preserves whatever the JSON
// already carries for an activity it regenerates.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bidbuddy-workers/pkg/registry"

	goe "bidbuddy-workers/internal/workers/auth/google-oauth-exchange"
	rgt "bidbuddy-workers/internal/workers/auth/refresh-google-token"
	rus "bidbuddy-workers/internal/workers/auth/resolve-user-session"
	es "bidbuddy-workers/internal/workers/communication/email-send"
	rn "bidbuddy-workers/internal/workers/communication/render-notification"
	qe "bidbuddy-workers/internal/workers/data-access/query-elasticsearch"
	qp "bidbuddy-workers/internal/workers/data-access/query-postgresql"
	sdp "bidbuddy-workers/internal/workers/drive/sync-drive-projects"
	spp "bidbuddy-workers/internal/workers/drive/sync-project-proposals"
	upf "bidbuddy-workers/internal/workers/drive/upload-proposal-file"
	cie "bidbuddy-workers/internal/workers/intake/classify-inbound-email"
	ebc "bidbuddy-workers/internal/workers/intake/extract-buildingconnected"
	fea "bidbuddy-workers/internal/workers/intake/fetch-email-attachment"
	fwe "bidbuddy-workers/internal/workers/intake/forward-email"
	ip "bidbuddy-workers/internal/workers/proposal/index-proposal"
	ppf "bidbuddy-workers/internal/workers/proposal/parse-proposal-filename"
	rp "bidbuddy-workers/internal/workers/proposal/record-proposals"
	rbs "bidbuddy-workers/internal/workers/proposal/refresh-bidder-stats"
)

// fleetEntry is everything about a worker that is not worth a registry
// field of its own in code. Timeout and MaxJobsActive are read from the
// worker's DefaultConfig so they track the package, not this table.
type fleetEntry struct {
	taskType      string
	category      string
	displayName   string
	description   string
	timeout       time.Duration
	maxJobsActive int
	errorCodes    []string
	workflows     []string
	tags          []string
}

func fleet() []fleetEntry {
	return []fleetEntry{
		// proposal
		{
			taskType:      ppf.TaskType,
			category:      registry.CategoryProposal,
			displayName:   "Parse Proposal Filename",
			description:   "Splits a {trade}_{company} bid filename into canonical trade names and a company name",
			timeout:       ppf.DefaultConfig().Timeout,
			maxJobsActive: ppf.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"MALFORMED_FILENAME", "MISSING_COMPANY_NAME"},
			workflows:     []string{"email-bid-intake", "drive-sync"},
			tags:          []string{"parser", "trades"},
		},
		{
			taskType:      rp.TaskType,
			category:      registry.CategoryProposal,
			displayName:   "Record Proposals",
			description:   "Writes parsed proposals into Postgres, auto-creating trades and skipping duplicate bids",
			timeout:       rp.DefaultConfig().Timeout,
			maxJobsActive: rp.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"PROPOSAL_VALIDATION_FAILED", "DATABASE_INSERT_FAILED"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"postgres", "trades"},
		},
		{
			taskType:      ip.TaskType,
			category:      registry.CategoryProposal,
			displayName:   "Index Proposal",
			description:   "Indexes a recorded proposal into Elasticsearch for bid search",
			timeout:       ip.DefaultConfig().Timeout,
			maxJobsActive: ip.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"PROPOSAL_VALIDATION_FAILED", "INDEXING_FAILED"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"elasticsearch", "search"},
		},
		{
			taskType:      rbs.TaskType,
			category:      registry.CategoryProposal,
			displayName:   "Refresh Bidder Stats",
			description:   "Recomputes per-trade bidder coverage for a project after proposals change",
			timeout:       rbs.DefaultConfig().Timeout,
			maxJobsActive: rbs.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"PROPOSAL_VALIDATION_FAILED", "STATS_REFRESH_FAILED"},
			workflows:     []string{"email-bid-intake", "drive-sync"},
			tags:          []string{"postgres", "redis", "stats"},
		},

		// drive
		{
			taskType:      sdp.TaskType,
			category:      registry.CategoryDrive,
			displayName:   "Sync Drive Projects",
			description:   "Mirrors the user's Drive project folders into the projects table",
			timeout:       sdp.DefaultConfig().Timeout,
			maxJobsActive: sdp.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "DRIVE_AUTH_EXPIRED", "DRIVE_API_ERROR", "PROFILE_NOT_FOUND", "BUSINESS_RULE_VIOLATION"},
			workflows:     []string{"drive-sync", "google-onboarding"},
			tags:          []string{"drive", "google", "postgres"},
		},
		{
			taskType:      spp.TaskType,
			category:      registry.CategoryDrive,
			displayName:   "Sync Project Proposals",
			description:   "Scans one project folder and records proposals for files the parser recognizes",
			timeout:       spp.DefaultConfig().Timeout,
			maxJobsActive: spp.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "DRIVE_AUTH_EXPIRED", "RESOURCE_NOT_FOUND", "BUSINESS_RULE_VIOLATION"},
			workflows:     []string{"drive-sync"},
			tags:          []string{"drive", "google", "parser", "postgres"},
		},
		{
			taskType:      upf.TaskType,
			category:      registry.CategoryDrive,
			displayName:   "Upload Proposal File",
			description:   "Uploads a bid attachment into the matching project folder, falling back to the uncertain-bids folder",
			timeout:       upf.DefaultConfig().Timeout,
			maxJobsActive: upf.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "DRIVE_AUTH_EXPIRED", "DRIVE_UPLOAD_FAILED", "PROFILE_NOT_FOUND", "BUSINESS_RULE_VIOLATION"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"drive", "google", "upload"},
		},

		// intake
		{
			taskType:      cie.TaskType,
			category:      registry.CategoryIntake,
			displayName:   "Classify Inbound Email",
			description:   "Buckets an inbound email as a BuildingConnected notification, bid proposal, question or skip",
			timeout:       cie.DefaultConfig().Timeout,
			maxJobsActive: cie.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"email", "classification"},
		},
		{
			taskType:      ebc.TaskType,
			category:      registry.CategoryIntake,
			displayName:   "Extract BuildingConnected",
			description:   "Pulls company, trade and project fields out of a BuildingConnected notification email",
			timeout:       ebc.DefaultConfig().Timeout,
			maxJobsActive: ebc.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"EXTRACTION_FAILED"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"email", "buildingconnected"},
		},
		{
			taskType:      fea.TaskType,
			category:      registry.CategoryIntake,
			displayName:   "Fetch Email Attachment",
			description:   "Downloads one attachment from AgentMail and hands it on base64-encoded",
			timeout:       fea.DefaultConfig().Timeout,
			maxJobsActive: fea.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "RESOURCE_NOT_FOUND", "ATTACHMENT_TOO_LARGE"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"email", "agentmail"},
		},
		{
			taskType:      fwe.TaskType,
			category:      registry.CategoryIntake,
			displayName:   "Forward Email",
			description:   "Forwards a non-bid email to the account owner over SES",
			timeout:       fwe.DefaultConfig().Timeout,
			maxJobsActive: fwe.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "EMAIL_SEND_FAILED"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"email", "ses"},
		},

		// communication
		{
			taskType:      es.TaskType,
			category:      registry.CategoryCommunication,
			displayName:   "Email Send",
			description:   "Sends a rendered notification over SMTP with an SES fallback",
			timeout:       es.DefaultConfig().Timeout,
			maxJobsActive: es.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "EMAIL_SEND_FAILED"},
			workflows:     []string{"notify-user", "email-bid-intake"},
			tags:          []string{"email", "smtp", "ses"},
		},
		{
			taskType:      rn.TaskType,
			category:      registry.CategoryCommunication,
			displayName:   "Render Notification",
			description:   "Renders a notification template with schema-validated variables",
			timeout:       rn.DefaultConfig().Timeout,
			maxJobsActive: rn.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"TEMPLATE_NOT_FOUND", "TEMPLATE_VALIDATION_FAILED", "RENDER_ERROR"},
			workflows:     []string{"notify-user", "email-bid-intake"},
			tags:          []string{"templates", "notifications"},
		},

		// auth
		{
			taskType:      goe.TaskType,
			category:      registry.CategoryAuth,
			displayName:   "Google OAuth Exchange",
			description:   "Exchanges an OAuth code for Google tokens and stores them on the profile",
			timeout:       goe.DefaultConfig().Timeout,
			maxJobsActive: goe.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "AUTHENTICATION_ERROR", "TOKEN_EXCHANGE_FAILED"},
			workflows:     []string{"google-onboarding"},
			tags:          []string{"google", "oauth", "postgres"},
		},
		{
			taskType:      rgt.TaskType,
			category:      registry.CategoryAuth,
			displayName:   "Refresh Google Token",
			description:   "Refreshes a profile's Google access token before it expires",
			timeout:       rgt.DefaultConfig().Timeout,
			maxJobsActive: rgt.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "PROFILE_NOT_FOUND", "DRIVE_AUTH_EXPIRED", "TOKEN_REFRESH_FAILED"},
			workflows:     []string{"token-health"},
			tags:          []string{"google", "oauth", "redis"},
		},
		{
			taskType:      rus.TaskType,
			category:      registry.CategoryAuth,
			displayName:   "Resolve User Session",
			description:   "Resolves a bearer token to a user id through the identity service",
			timeout:       rus.DefaultConfig().Timeout,
			maxJobsActive: rus.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"SESSION_INVALID", "EXTERNAL_SERVICE_ERROR"},
			workflows:     []string{"google-onboarding", "drive-sync"},
			tags:          []string{"identity", "session"},
		},

		// data-access
		{
			taskType:      qp.TaskType,
			category:      registry.CategoryDataAccess,
			displayName:   "Query PostgreSQL",
			description:   "Runs a whitelisted query type against Postgres for workflow gateways",
			timeout:       qp.DefaultConfig().Timeout,
			maxJobsActive: qp.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"VALIDATION_FAILED", "INVALID_QUERY_TYPE", "QUERY_EXECUTION_FAILED", "QUERY_TIMEOUT", "RESOURCE_NOT_FOUND"},
			workflows:     []string{"email-bid-intake", "drive-sync"},
			tags:          []string{"postgres"},
		},
		{
			taskType:      qe.TaskType,
			category:      registry.CategoryDataAccess,
			displayName:   "Query Elasticsearch",
			description:   "Searches indexed proposals and projects for workflow decisions",
			timeout:       qe.DefaultConfig().Timeout,
			maxJobsActive: qe.DefaultConfig().MaxJobsActive,
			errorCodes:    []string{"SEARCH_QUERY_FAILED", "SEARCH_TIMEOUT", "INDEX_NOT_FOUND"},
			workflows:     []string{"email-bid-intake"},
			tags:          []string{"elasticsearch", "search"},
		},
	}
}

func main() {
	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	generatePath := generateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd.Parse(os.Args[2:])
		if err := generate(*generatePath); err != nil {
			fmt.Printf("Error generating registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry written to %s (%d activities).\n", *generatePath, len(fleet()))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validate(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func generate(path string) error {
	existing, err := registry.Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load existing registry: %w", err)
		}
		existing = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	reg := &registry.ActivityRegistry{
		Version:     existing.Version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	if reg.Version == "" {
		reg.Version = "1.0.0"
	}

	for _, entry := range fleet() {
		activity := registry.Activity{
			ID:            entry.taskType,
			DisplayName:   entry.displayName,
			Description:   entry.description,
			Category:      entry.category,
			Version:       "1.0.0",
			TaskType:      entry.taskType,
			Status:        registry.StatusActive,
			InputSchema:   map[string]interface{}{},
			OutputSchema:  map[string]interface{}{},
			ErrorCodes:    entry.errorCodes,
			Timeout:       entry.timeout.String(),
			MaxJobsActive: entry.maxJobsActive,
			Retries:       3,
			Workflows:     entry.workflows,
			Tags:          entry.tags,
		}

		// Variable schemas are maintained by hand in the JSON.
		if prev, ok := existing.Find(entry.taskType); ok {
			activity.Version = prev.Version
			if len(prev.InputSchema) > 0 {
				activity.InputSchema = prev.InputSchema
			}
			if len(prev.OutputSchema) > 0 {
				activity.OutputSchema = prev.OutputSchema
			}
		}

		reg.Activities = append(reg.Activities, activity)
	}

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("generated registry is invalid: %w", err)
	}
	return reg.Save(path)
}

// validate checks the file itself and that it still matches the fleet
// compiled into this binary.
func validate(path string) error {
	reg, err := registry.Load(path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	inFleet := make(map[string]bool)
	for _, entry := range fleet() {
		inFleet[entry.taskType] = true
		if _, ok := reg.ByTaskType(entry.taskType); !ok {
			return fmt.Errorf("worker %s is missing from the registry, run generate", entry.taskType)
		}
	}
	for _, taskType := range reg.TaskTypes() {
		if !inFleet[taskType] {
			return fmt.Errorf("registry lists %s but no worker registers that task type, run generate", taskType)
		}
	}

	fmt.Printf("Registry matches the fleet. Found %d activities.\n", len(reg.Activities))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  generate  Regenerate the registry from the compiled-in worker fleet
  validate  Check the registry file against the fleet
  help      Show this help message

Examples:
  registry-updater generate
  registry-updater generate -path configs/activity-registry.json
  registry-updater validate -path configs/activity-registry.json

generate preserves the hand-authored inputSchema and outputSchema blocks
of activities it regenerates. Everything else comes from the worker
packages and the fleet table in this tool.
`)
}

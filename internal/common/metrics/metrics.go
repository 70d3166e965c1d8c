// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	FilenamesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_filenames_parsed_total",
			Help: "Total number of proposal filenames parsed, by outcome",
		},
		[]string{"outcome"},
	)

	TradesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trades_resolved_total",
			Help: "Total number of trades matched while recording proposals, by source (existing or created)",
		},
		[]string{"source"},
	)

	ProposalsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proposals_recorded_total",
			Help: "Total number of proposal rows written",
		},
	)

	DriveFilesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drive_files_synced_total",
			Help: "Total number of Drive files processed during sync, by status",
		},
		[]string{"status"},
	)

	EmailsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_emails_processed_total",
			Help: "Total number of inbound emails processed, by classification",
		},
		[]string{"classification"},
	)
)

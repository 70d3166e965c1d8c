// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"bidbuddy-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JobHandler is implemented by every worker handler in internal/workers.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	client   zbc.Client
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	logger *zap.Logger,
	obs *observability.Observability,
) *CamundaWorker {
	// Wrap handler to match Zeebe's expected signature
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			ctx, span := obs.StartSpan(context.Background(), "job."+taskType,
				attribute.Int64("job.key", job.Key),
				attribute.Int64("process.instance", job.ProcessInstanceKey),
			)
			defer span.End()

			start := time.Now()

			err := handler.Handle(client, job)

			elapsed := time.Since(start)

			if err != nil {
				logger.Error("Handler returned error", zap.Error(err), zap.Int64("jobKey", job.Key))
				span.RecordError(err)
				obs.RecordJobDuration(ctx, elapsed, "failed")
				obs.RecordJobProcessed(ctx, "failed")
				return
			}

			obs.RecordJobDuration(ctx, elapsed, "completed")
			obs.RecordJobProcessed(ctx, "completed")
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Name(taskType + "-worker").
		Open()

	return &CamundaWorker{
		client:   client,
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", zap.String("taskType", w.taskType))
}

// Stop closes the job poller and waits for in-flight jobs, up to the
// context deadline. The shared Zeebe client is closed by the manager,
// not here.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))

	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out", zap.String("taskType", w.taskType))
	}
}

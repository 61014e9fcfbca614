package camunda

import (
	"time"

	"worker-discovery/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	MaxJobsActive  int
	Timeout        time.Duration
	RequestTimeout time.Duration
}

// Open starts polling taskType and hands every activated job to handler.
func Open(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, log logger.Logger) worker.JobWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Name("worker-discovery")
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	if opts.RequestTimeout > 0 {
		step = step.RequestTimeout(opts.RequestTimeout)
	}
	jobWorker := step.Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout_ms":    opts.Timeout.Milliseconds(),
	})
	return jobWorker
}

package filtereligibleworkers

import (
	"context"
	"time"

	"worker-discovery/internal/common/errors"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/metrics"
	"worker-discovery/internal/common/observability"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/eligibility"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "filter-eligible-workers"
)

type Handler struct {
	config    *Config
	processor *eligibility.Processor
	validator *validation.Validator
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, processor *eligibility.Processor, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		processor: processor,
		validator: validator,
		errors:    errors.NewErrorHandler(log),
		obs:       obs,
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := h.validator.Decode(TaskType, job.Variables, &input); err != nil {
		h.failJob(client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.logger.Info("candidates filtered", map[string]interface{}{
		"jobKey":   job.Key,
		"total":    output.Report.Total,
		"eligible": output.Report.Eligible,
	})

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	eligible, report, err := h.processor.FilterWithReport(input.Candidates, input.Context)
	if err != nil {
		return nil, err
	}
	h.obs.RecordStage(ctx, observability.StageFilter, len(input.Candidates), time.Since(start))
	metrics.RecordRejections(report.Total, report.Rejected)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{Eligible: eligible, Report: report}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := h.errors.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

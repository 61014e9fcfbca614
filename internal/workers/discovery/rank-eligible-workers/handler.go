package rankeligibleworkers

import (
	"context"
	"time"

	"worker-discovery/internal/common/errors"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/metrics"
	"worker-discovery/internal/common/observability"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-eligible-workers"
)

type Handler struct {
	config    *Config
	engine    *ranking.Engine
	validator *validation.Validator
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, engine *ranking.Engine, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		engine:    engine,
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

	h.logger.Info("workers ranked", map[string]interface{}{
		"jobKey":        job.Key,
		"results":       len(output.Results),
		"configVersion": output.ConfigVersion,
	})

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	snapshot, err := h.engine.RankSnapshot(input.Eligible, input.Context)
	if err != nil {
		return nil, err
	}
	h.obs.RecordStage(ctx, observability.StageRank, len(input.Eligible), time.Since(start))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := snapshot.Results
	if h.config.MaxResults > 0 && len(results) > h.config.MaxResults {
		results = results[:h.config.MaxResults]
	}
	metrics.RankedResults.Observe(float64(len(results)))

	return &Output{Results: results, ConfigVersion: snapshot.ConfigVersion}, nil
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

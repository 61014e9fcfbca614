package searchworkers

import (
	"context"
	"time"

	"worker-discovery/internal/common/errors"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/metrics"
	"worker-discovery/internal/common/observability"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/eligibility"
	"worker-discovery/internal/discovery/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "search-workers"
)

type Handler struct {
	config    *Config
	processor *eligibility.Processor
	engine    *ranking.Engine
	validator *validation.Validator
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(
	config *Config,
	processor *eligibility.Processor,
	engine *ranking.Engine,
	validator *validation.Validator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		processor: processor,
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

	h.logger.Info("search completed", map[string]interface{}{
		"jobKey":        job.Key,
		"searchId":      output.SearchID,
		"candidates":    output.Report.Total,
		"total":         output.Total,
		"returned":      len(output.Results),
		"configVersion": output.ConfigVersion,
		"duration_ms":   time.Since(startTime).Milliseconds(),
	})

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	page, size := h.pagination(input)

	filterStart := time.Now()
	eligible, report, err := h.processor.FilterWithReport(input.Candidates, input.Context)
	if err != nil {
		return nil, err
	}
	h.obs.RecordStage(ctx, observability.StageFilter, len(input.Candidates), time.Since(filterStart))
	metrics.RecordRejections(report.Total, report.Rejected)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankStart := time.Now()
	snapshot, err := h.engine.RankSnapshot(eligible, input.Context)
	if err != nil {
		return nil, err
	}
	h.obs.RecordStage(ctx, observability.StageRank, len(eligible), time.Since(rankStart))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := len(snapshot.Results)
	from, to := pageBounds(page, size, total)
	results := snapshot.Results[from:to]
	metrics.RankedResults.Observe(float64(total))

	return &Output{
		SearchID:      uuid.New().String(),
		Results:       results,
		Total:         total,
		Page:          page,
		Size:          size,
		HasMore:       to < total,
		Report:        report,
		ConfigVersion: snapshot.ConfigVersion,
	}, nil
}

// pagination defaults page to 1 and clamps size to [1, MaxItems].
func (h *Handler) pagination(input *Input) (int, int) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	size := input.Size
	if size < 1 {
		size = h.config.DefaultPageSize
	}
	if h.config.MaxItems > 0 && size > h.config.MaxItems {
		size = h.config.MaxItems
	}
	if size < 1 {
		size = 1
	}
	return page, size
}

// pageBounds returns the [from, to) slice of a page. page and size must be >= 1.
// The offset is never multiplied out past total, so huge pages cannot overflow.
func pageBounds(page, size, total int) (int, int) {
	if total == 0 || page-1 > (total-1)/size {
		return total, total
	}
	from := (page - 1) * size
	return from, from + min(size, total-from)
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

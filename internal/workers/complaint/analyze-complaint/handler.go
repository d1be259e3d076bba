package analyzecomplaint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"complaint-router/internal/common/camunda"
	"complaint-router/internal/common/config"
	"complaint-router/internal/common/errors"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/metrics"
	"complaint-router/internal/common/observability"
	"complaint-router/internal/models"
)

const TaskType = "analyze-complaint"

// Processor runs the complaint pipeline.
type Processor interface {
	Process(ctx context.Context, requestID, text, language string) *models.ComplaintResult
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	processor    Processor
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	jobWorker    *camunda.Worker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Processor     Processor
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("invalid configuration for %s: processor is required", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		processor:    opts.Processor,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		obs:          opts.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing complaint job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, requestID(job), input)

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
}

// Execute runs the pipeline. It cannot fail once the input is valid.
func (h *Handler) Execute(ctx context.Context, requestID string, input *Input) *Output {
	result := h.processor.Process(ctx, requestID, input.Complaint, input.Language)
	return &Output{
		Analysis:   result.Analysis,
		AIResponse: result.AIResponse,
		Language:   result.Language,
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeValidationFailed,
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	res := inputSchema.Validate(variables)
	if !res.Valid {
		field := "complaint"
		if !res.HasErrors(field) && res.HasErrors("language") {
			field = "language"
		}
		return nil, errors.NewValidationError(field, res.Summary())
	}

	input := &Input{Complaint: strings.TrimSpace(variables["complaint"].(string))}
	if input.Complaint == "" {
		return nil, errors.NewValidationError("complaint", "complaint is blank")
	}
	if lang, ok := variables["language"].(string); ok {
		input.Language = strings.TrimSpace(lang)
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("encode job variables: %w", err))
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return errors.NewJobCompletionError(err)
	}

	h.logger.Info("Complaint job completed", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"category": output.Analysis.Category,
		"priority": output.Analysis.Priority,
		"source":   output.Analysis.Source,
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// Register opens the job worker when enabled.
func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required", TaskType)
	}

	h.jobWorker = camunda.StartWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h, h.logger)
	return nil
}

func (h *Handler) Close() {
	h.jobWorker.Close()
	h.jobWorker = nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func requestID(job entities.Job) string {
	return fmt.Sprintf("job-%d", job.GetKey())
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}
	return cfg
}

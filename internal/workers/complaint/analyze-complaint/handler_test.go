package analyzecomplaint

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"complaint-router/internal/common/config"
	"complaint-router/internal/common/errors"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/models"
)

// ==========================
// Mock Processor Implementation
// ==========================

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, requestID, text, language string) *models.ComplaintResult {
	args := m.Called(ctx, requestID, text, language)
	return args.Get(0).(*models.ComplaintResult)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "complaint-intake",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_AnalyzeComplaint",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createValidConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10 * time.Second,
	}
}

func newTestHandler(t *testing.T, p Processor) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Processor:    p,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid configuration",
			opts:    HandlerOptions{CustomConfig: createValidConfig(), Processor: &MockProcessor{}},
			wantErr: false,
		},
		{
			name: "invalid timeout",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 5, Timeout: -1 * time.Second},
				Processor:    &MockProcessor{},
			},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "invalid max jobs active",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 0, Timeout: time.Second},
				Processor:    &MockProcessor{},
			},
			wantErr: true,
			errMsg:  "max_jobs_active must be positive",
		},
		{
			name:    "missing processor",
			opts:    HandlerOptions{CustomConfig: createValidConfig()},
			wantErr: true,
			errMsg:  "processor is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, handler)
				assert.NotNil(t, handler.logger)
				assert.NotNil(t, handler.errorHandler)
				assert.Equal(t, TaskType, handler.GetTaskType())
			}
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 12, Timeout: 45000},
	}}

	cfg := createConfigFromAppConfig(app, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 12, cfg.MaxJobsActive)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(&config.Config{}, nil))

	custom := createValidConfig()
	assert.Same(t, custom, createConfigFromAppConfig(app, custom))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := newTestHandler(t, &MockProcessor{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		want      *Input
		wantField string
	}{
		{
			name:      "complaint and language",
			variables: map[string]interface{}{"complaint": "  Streetlight broken in Gomti Nagar ", "language": "hi"},
			want:      &Input{Complaint: "Streetlight broken in Gomti Nagar", Language: "hi"},
		},
		{
			name:      "complaint only",
			variables: map[string]interface{}{"complaint": "Garbage not collected"},
			want:      &Input{Complaint: "Garbage not collected"},
		},
		{
			name:      "missing complaint",
			variables: map[string]interface{}{"language": "en"},
			wantField: "complaint",
		},
		{
			name:      "empty complaint",
			variables: map[string]interface{}{"complaint": ""},
			wantField: "complaint",
		},
		{
			name:      "blank complaint",
			variables: map[string]interface{}{"complaint": "    "},
			wantField: "complaint",
		},
		{
			name:      "complaint wrong type",
			variables: map[string]interface{}{"complaint": 42},
			wantField: "complaint",
		},
		{
			name:      "language wrong type",
			variables: map[string]interface{}{"complaint": "Road damaged", "language": 1},
			wantField: "language",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := handler.parseInput(createMockJob(1, tt.variables))

			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				bpmn := errors.ConvertToBPMNError(errors.Normalize(err))
				assert.Equal(t, "VALIDATION_FAILED", bpmn.Code)
				assert.Equal(t, 0, bpmn.Retries)
				assert.Contains(t, bpmn.Message, tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input)
		})
	}
}

func TestHandler_ParseInput_MalformedVariables(t *testing.T) {
	handler := newTestHandler(t, &MockProcessor{})
	job := createMockJob(2, nil)
	job.Variables = "{not json"

	_, err := handler.parseInput(job)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	result := &models.ComplaintResult{
		Analysis: &models.ComplaintAnalysis{
			Category: models.CategoryHealthcare,
			Priority: models.PriorityCritical,
			Source:   models.SourceRuleBased,
		},
		AIResponse: "Please call 108 for an ambulance.",
		Language:   "en",
	}
	p := &MockProcessor{}
	p.On("Process", mock.Anything, "job-7", "Hospital refused emergency patient", "").Return(result).Once()

	handler := newTestHandler(t, p)
	job := createMockJob(7, map[string]interface{}{"complaint": "Hospital refused emergency patient"})

	input, err := handler.parseInput(job)
	require.NoError(t, err)
	out := handler.Execute(context.Background(), requestID(job), input)

	assert.Same(t, result.Analysis, out.Analysis)
	assert.Equal(t, "Please call 108 for an ambulance.", out.AIResponse)
	assert.Equal(t, "en", out.Language)
	p.AssertExpectations(t)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.Contains(t, vars, "analysis")
	assert.Equal(t, "Please call 108 for an ambulance.", vars["aiResponse"])
}

func TestHandler_RegisterDisabled(t *testing.T) {
	cfg := createValidConfig()
	cfg.Enabled = false
	handler, err := NewHandler(HandlerOptions{CustomConfig: cfg, Processor: &MockProcessor{}})
	require.NoError(t, err)

	assert.NoError(t, handler.Register())
	handler.Close()
}

func TestHandler_RegisterWithoutClient(t *testing.T) {
	handler := newTestHandler(t, &MockProcessor{})
	assert.Error(t, handler.Register())
}

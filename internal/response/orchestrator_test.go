package response

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"complaint-router/internal/common/logger"
	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
	"complaint-router/internal/provider"
)

// ==========================
// Test Helper Functions
// ==========================

type MockStream struct {
	mock.Mock
	configured bool
}

func (m *MockStream) Name() string     { return "watsonx" }
func (m *MockStream) Configured() bool { return m.configured }

func (m *MockStream) Generate(ctx context.Context, req provider.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockChat struct {
	mock.Mock
	configured bool
}

func (m *MockChat) Name() string     { return "openrouter" }
func (m *MockChat) Configured() bool { return m.configured }

func (m *MockChat) Generate(ctx context.Context, prompt, model string) (string, error) {
	args := m.Called(ctx, prompt, model)
	return args.String(0), args.Error(1)
}

func newOrchestrator(t *testing.T, stream provider.StreamGenerator, chat provider.PromptGenerator) *Orchestrator {
	t.Helper()
	ds, err := dataset.Load()
	require.NoError(t, err)
	return New(ds, logger.NewTestLogger(t), StreamStrategy{Generator: stream}, ChatStrategy{Generator: chat})
}

var errUpstream = provider.NewError("test", "API error: 503", nil)

const pothole = "Huge pothole on the main road near Hazratganj"

// ==========================
// Strategy order
// ==========================

func TestRespond_StreamingProviderFirst(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.MatchedBy(func(req provider.ChatRequest) bool {
		return len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.MaxTokens == 300 &&
			req.Temperature == 0.7 &&
			assert.Contains(t, req.Messages[0].Content, pothole) &&
			assert.Contains(t, req.Messages[0].Content, "Department: Public Works") &&
			assert.Contains(t, req.Messages[0].Content, "Contact: 0522-2237547")
	})).Return("Your complaint has been registered.", nil).Once()
	chat := &MockChat{configured: true}

	got := newOrchestrator(t, stream, chat).Respond(context.Background(), pothole, models.CategoryInfrastructure, models.PriorityHigh, "Public Works", "en")

	assert.Equal(t, "Your complaint has been registered.", got)
	stream.AssertExpectations(t)
	chat.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespond_ExplicitZeroTemperature(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.MatchedBy(func(req provider.ChatRequest) bool {
		return req.Temperature == 0 && req.MaxTokens == 120
	})).Return("Registered.", nil).Once()
	ds := dataset.MustLoad()
	zero := 0.0
	o := New(ds, logger.NewTestLogger(t), StreamStrategy{Generator: stream, MaxTokens: 120, Temperature: &zero})

	got := o.Respond(context.Background(), pothole, models.CategoryInfrastructure, models.PriorityHigh, "Public Works", "en")

	assert.Equal(t, "Registered.", got)
	stream.AssertExpectations(t)
}

func TestRespond_DepartmentContactsInPrompt(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.MatchedBy(func(req provider.ChatRequest) bool {
		return len(req.Messages) == 1 &&
			assert.Contains(t, req.Messages[0].Content, "Department: Electricity") &&
			assert.Contains(t, req.Messages[0].Content, "Contact: 1912") &&
			assert.NotContains(t, req.Messages[0].Content, "Jal Nigam")
	})).Return("Your power complaint has been registered.", nil).Once()

	got := newOrchestrator(t, stream, &MockChat{}).Respond(
		context.Background(), "Transformer blew up, no power since morning", models.CategoryUtilities, models.PriorityHigh, "Electricity", "en")

	assert.Equal(t, "Your power complaint has been registered.", got)
	stream.AssertExpectations(t)
}

func TestRespond_ChatProviderOnStreamFailure(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.Anything).Return("", errUpstream).Once()
	chat := &MockChat{configured: true}
	chat.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "Complaint: "+pothole)
	}), "").Return("**Dear citizen**, the PWD will   inspect the road.", nil).Once()

	got := newOrchestrator(t, stream, chat).Respond(context.Background(), pothole, models.CategoryInfrastructure, models.PriorityHigh, "Public Works", "en")

	assert.Equal(t, "Dear citizen, the PWD will inspect the road.", got, "chat output is cleaned")
	stream.AssertExpectations(t)
	chat.AssertExpectations(t)
}

func TestRespond_BlankReplyIsFailure(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.Anything).Return("   ", nil).Once()
	chat := &MockChat{configured: true}
	chat.On("Generate", mock.Anything, mock.Anything, "").Return("```\ncode only\n```", nil).Once()

	got := newOrchestrator(t, stream, chat).Respond(context.Background(), pothole, models.CategoryInfrastructure, models.PriorityHigh, "Public Works", "en")

	tmpl, ok := dataset.MustLoad().Template("Infrastructure", "high")
	require.True(t, ok)
	assert.Equal(t, tmpl, got)
}

func TestRespond_SkipsUnconfigured(t *testing.T) {
	stream := &MockStream{configured: false}
	chat := &MockChat{configured: true}
	chat.On("Generate", mock.Anything, mock.Anything, "").Return("Reply from chat.", nil).Once()

	got := newOrchestrator(t, stream, chat).Respond(context.Background(), pothole, models.CategoryInfrastructure, models.PriorityHigh, "Public Works", "en")

	assert.Equal(t, "Reply from chat.", got)
	stream.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

// ==========================
// Template terminal
// ==========================

func TestRespond_TemplateFromDataset(t *testing.T) {
	got := newOrchestrator(t, &MockStream{}, &MockChat{}).Respond(
		context.Background(), "no water", models.CategoryUtilities, models.PriorityCritical, "Water Supply", "en")

	assert.Equal(t,
		"Your utility complaint has been marked critical and forwarded to the emergency maintenance team. Restoration work will begin within 4 hours.",
		got)
}

func TestRespond_GenericTemplate(t *testing.T) {
	got := newOrchestrator(t, &MockStream{}, &MockChat{}).Respond(
		context.Background(), "teacher absent", models.CategoryEducation, models.PriorityLow, "Education", "en")

	assert.Equal(t,
		"Thank you for your education complaint. Contact Director, Basic Education at 0522-2780498. Expected response: 5-10 days.",
		got)
}

func TestRespond_GenericTemplateUsesDepartment(t *testing.T) {
	got := newOrchestrator(t, &MockStream{}, &MockChat{}).Respond(
		context.Background(), "voltage fluctuation", models.CategoryUtilities, models.PriorityLow, "Electricity", "en")

	assert.Equal(t,
		"Thank you for your utilities complaint. Contact Chairman, UP Power Corporation Limited at 1912. Expected response: 4-24 hours.",
		got)
}

func TestRespond_CategoryTemplateIsDepartmentNeutral(t *testing.T) {
	o := newOrchestrator(t, &MockStream{}, &MockChat{})

	for _, pri := range []models.Priority{models.PriorityMedium, models.PriorityHigh, models.PriorityCritical} {
		got := o.Respond(context.Background(), "no power", models.CategoryUtilities, pri, "Electricity", "en")
		assert.NotContains(t, got, "Jal Nigam", "%s", pri)
		assert.NotContains(t, got, "water", "%s", pri)
	}
}

func TestRespond_NeverEmpty(t *testing.T) {
	stream := &MockStream{configured: true}
	stream.On("Generate", mock.Anything, mock.Anything).Return("", errUpstream)
	chat := &MockChat{configured: true}
	chat.On("Generate", mock.Anything, mock.Anything, "").Return("", errUpstream)
	o := newOrchestrator(t, stream, chat)

	for _, cat := range []models.Category{
		models.CategoryInfrastructure, models.CategoryUtilities, models.CategoryEnvironment,
		models.CategoryTraffic, models.CategoryHealthcare, models.CategoryEducation, models.CategoryOther,
	} {
		for _, pri := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical} {
			got := o.Respond(context.Background(), "complaint", cat, pri, "", "en")
			assert.NotEmpty(t, got, "%s/%s", cat, pri)
		}
	}
}

func TestRespond_NoStrategies(t *testing.T) {
	o := New(dataset.MustLoad(), nil)

	got := o.Respond(context.Background(), "complaint", models.CategoryOther, models.PriorityMedium, models.DefaultDepartment, "en")
	assert.Contains(t, got, "Thank you for your other complaint.")
}

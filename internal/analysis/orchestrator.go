// Package analysis classifies complaint text. A chat completion provider is
// asked for a JSON verdict first; any failure drops to the keyword classifier.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"complaint-router/internal/classifier"
	"complaint-router/internal/common/errors"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/metrics"
	"complaint-router/internal/common/validation"
	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
	"complaint-router/internal/prompts"
	"complaint-router/internal/provider"
	"complaint-router/internal/textnorm"
)

const (
	stage = "analysis"

	DefaultConfidence = 0.8
)

var verdictSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "category":   {"type": ["string", "null"]},
    "priority":   {"type": ["string", "null"]},
    "department": {"type": ["string", "null"]},
    "sentiment":  {"type": ["string", "null"]},
    "timeline":   {"type": ["string", "null"]},
    "district":   {"type": ["string", "null"]},
    "confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 1}
  }
}`)

// verdict is the provider's JSON answer. Absent and null fields take defaults.
type verdict struct {
	Category   *string  `json:"category"`
	Priority   *string  `json:"priority"`
	Department *string  `json:"department"`
	Sentiment  *string  `json:"sentiment"`
	District   *string  `json:"district"`
	Confidence *float64 `json:"confidence"`
}

type Orchestrator struct {
	chat       provider.PromptGenerator
	classifier *classifier.Classifier
	ds         *dataset.Dataset
	logger     logger.Logger
}

// New builds an orchestrator. chat may be nil, in which case every complaint
// goes to the keyword classifier.
func New(chat provider.PromptGenerator, ds *dataset.Dataset, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Orchestrator{
		chat:       chat,
		classifier: classifier.New(ds),
		ds:         ds,
		logger:     logger.ForComponent(log, "analysis"),
	}
}

// Analyze never fails. The returned analysis always carries department info.
func (o *Orchestrator) Analyze(ctx context.Context, text, language string) *models.ComplaintAnalysis {
	if o.chat != nil && o.chat.Configured() {
		result, err := o.analyzeWithProvider(ctx, text, language)
		if err == nil {
			metrics.FallbackTierTotal.WithLabelValues(stage, o.chat.Name()).Inc()
			return result
		}
		o.logger.Warn("Provider analysis failed, using keyword classifier", map[string]interface{}{
			"provider": o.chat.Name(),
			"error":    err,
		})
	}

	metrics.FallbackTierTotal.WithLabelValues(stage, string(models.SourceRuleBased)).Inc()
	return o.classifier.Classify(text)
}

func (o *Orchestrator) analyzeWithProvider(ctx context.Context, text, language string) (*models.ComplaintAnalysis, error) {
	prompt, err := prompts.Render(prompts.Analysis, prompts.AnalysisData{
		Helpline:    o.ds.HelplineNumber("cm_helpline"),
		Complaint:   text,
		Language:    language,
		Departments: o.departmentChoices(),
	})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	started := time.Now()
	raw, err := o.chat.Generate(ctx, prompt, "")
	metrics.ObserveProvider(o.chat.Name(), stage, started, err)
	if err != nil {
		return nil, err
	}

	v, err := parseVerdict(textnorm.Clean(raw))
	if err != nil {
		return nil, provider.NewError(o.chat.Name(), "unusable analysis", err)
	}
	return o.build(v), nil
}

func parseVerdict(cleaned string) (*verdict, error) {
	obj, ok := firstObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}

	if res := verdictSchema.ValidateJSON([]byte(obj)); !res.Valid {
		return nil, fmt.Errorf("schema: %s", res.Summary())
	}

	var v verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &v, nil
}

func (o *Orchestrator) build(v *verdict) *models.ComplaintAnalysis {
	category := models.CategoryOther
	if v.Category != nil {
		category = models.ParseCategory(*v.Category)
	}

	department := models.DefaultDepartment
	if v.Department != nil && strings.TrimSpace(*v.Department) != "" {
		department = strings.TrimSpace(*v.Department)
	}

	var district string
	if v.District != nil {
		district = strings.TrimSpace(*v.District)
	}

	confidence := DefaultConfidence
	if v.Confidence != nil {
		confidence = *v.Confidence
	}

	info := o.ds.ResolveFor(department, string(category), district)

	return &models.ComplaintAnalysis{
		Category:          category,
		Priority:          models.ParsePriority(deref(v.Priority)),
		Department:        department,
		Sentiment:         models.ParseSentiment(deref(v.Sentiment)),
		Timeline:          info.ResponseTime,
		Confidence:        confidence,
		Source:            models.SourceAIRAG,
		District:          district,
		DepartmentInfo:    info,
		SuggestedResponse: fmt.Sprintf("Thank you for your %s complaint. We will address it promptly.", strings.ToLower(string(category))),
	}
}

func (o *Orchestrator) departmentChoices() string {
	deps := o.ds.Departments()
	names := make([]string, 0, len(deps)+1)
	for _, d := range deps {
		names = append(names, d.Name)
	}
	names = append(names, models.DefaultDepartment)
	return strings.Join(names, "|")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

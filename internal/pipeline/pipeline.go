// Package pipeline runs a complaint through analysis and reply generation.
// It is shared by the HTTP API and the workflow job worker.
package pipeline

import (
	"context"
	"time"

	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/observability"
	"complaint-router/internal/models"
)

const DefaultLanguage = "en"

type Analyzer interface {
	Analyze(ctx context.Context, text, language string) *models.ComplaintAnalysis
}

type Responder interface {
	Respond(ctx context.Context, text string, category models.Category, priority models.Priority, department, language string) string
}

// Notifier is told about every analysis and decides itself whether to alert.
type Notifier interface {
	NotifyCritical(ctx context.Context, requestID string, a *models.ComplaintAnalysis) error
}

type Pipeline struct {
	analyzer  Analyzer
	responder Responder
	notifier  Notifier
	obs       *observability.Observability
	logger    logger.Logger
}

type Option func(*Pipeline)

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithObservability(o *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = o }
}

func New(analyzer Analyzer, responder Responder, log logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	p := &Pipeline{
		analyzer:  analyzer,
		responder: responder,
		logger:    logger.ForComponent(log, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process analyses text and generates the reply. It never fails; a blank
// language becomes DefaultLanguage.
func (p *Pipeline) Process(ctx context.Context, requestID, text, language string) *models.ComplaintResult {
	if language == "" {
		language = DefaultLanguage
	}

	started := time.Now()
	analysis := p.analyzer.Analyze(ctx, text, language)
	p.obs.RecordStage(ctx, "analysis", time.Since(started))

	started = time.Now()
	reply := p.responder.Respond(ctx, text, analysis.Category, analysis.Priority, analysis.Department, language)
	p.obs.RecordStage(ctx, "response", time.Since(started))

	p.obs.RecordComplaint(ctx, string(analysis.Category), string(analysis.Priority), string(analysis.Source))

	if p.notifier != nil {
		if err := p.notifier.NotifyCritical(ctx, requestID, analysis); err != nil {
			p.logger.Warn("Critical alert not delivered", map[string]interface{}{
				"request_id": requestID,
				"error":      err,
			})
		}
	}

	p.logger.Info("Complaint processed", map[string]interface{}{
		"request_id": requestID,
		"category":   analysis.Category,
		"priority":   analysis.Priority,
		"source":     analysis.Source,
	})

	return &models.ComplaintResult{
		Analysis:   analysis,
		AIResponse: reply,
		Language:   language,
	}
}

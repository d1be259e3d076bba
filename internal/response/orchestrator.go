// Package response generates the citizen-facing reply. Strategies are tried in
// order and a static template closes the chain, so a reply is always produced.
package response

import (
	"context"
	"fmt"
	"strings"
	"time"

	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/metrics"
	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
)

const (
	stage        = "response"
	templateTier = "template"
)

type Orchestrator struct {
	strategies []ReplyStrategy
	ds         *dataset.Dataset
	logger     logger.Logger
}

// New builds an orchestrator over strategies in priority order.
func New(ds *dataset.Dataset, log logger.Logger, strategies ...ReplyStrategy) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Orchestrator{
		strategies: strategies,
		ds:         ds,
		logger:     logger.ForComponent(log, "response"),
	}
}

// Respond returns a non-empty reply. Contacts come from the analysed
// department's record when it has one, else from the category. Strategy
// failures are logged and counted but never returned.
func (o *Orchestrator) Respond(ctx context.Context, text string, category models.Category, priority models.Priority, department, language string) string {
	req := Request{
		Complaint: text,
		Category:  category,
		Priority:  priority,
		Language:  language,
		Helpline:  o.ds.HelplineNumber("cm_helpline"),
		Info:      o.ds.ResolveFor(department, string(category), ""),
	}

	for _, s := range o.strategies {
		if !s.Available() {
			continue
		}
		if reply, ok := o.try(ctx, s, req); ok {
			metrics.FallbackTierTotal.WithLabelValues(stage, s.Name()).Inc()
			return reply
		}
	}

	metrics.FallbackTierTotal.WithLabelValues(stage, templateTier).Inc()
	return o.templateReply(req)
}

func (o *Orchestrator) try(ctx context.Context, s ReplyStrategy, req Request) (string, bool) {
	started := time.Now()
	reply, err := s.Reply(ctx, req)
	if err == nil && blank(reply) {
		err = fmt.Errorf("blank reply")
	}
	metrics.ObserveProvider(s.Name(), stage, started, err)

	if err != nil {
		o.logger.Warn("Reply strategy failed", map[string]interface{}{
			"strategy": s.Name(),
			"error":    err,
		})
		return "", false
	}
	o.logger.Debug("Reply generated", map[string]interface{}{"strategy": s.Name()})
	return reply, true
}

func (o *Orchestrator) templateReply(req Request) string {
	if t, ok := o.ds.Template(string(req.Category), string(req.Priority)); ok && !blank(t) {
		return t
	}
	return fmt.Sprintf("Thank you for your %s complaint. Contact %s at %s. Expected response: %s.",
		strings.ToLower(string(req.Category)), req.Info.Head, req.Info.Contact, req.Info.ResponseTime)
}

package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-router/internal/common/logger"
)

func TestObservability_ExportsPipelineMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("complaint-router-test", reg, logger.NewTestLogger(t))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordComplaint(ctx, "Utilities", "medium", "rule_based")
	obs.RecordStage(ctx, "analysis", 12*time.Millisecond)
	obs.RecordJobProcessed(ctx, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "complaints_processed")
	assert.Contains(t, joined, "pipeline_stage_duration")
	assert.Contains(t, joined, "jobs_processed")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordComplaint(ctx, "Other", "low", "ai_rag")
		obs.RecordStage(ctx, "response", time.Second)
		obs.RecordJobProcessed(ctx, "failed")
		obs.Shutdown()
	})

	empty := &Observability{}
	assert.NotPanics(t, func() { empty.RecordComplaint(ctx, "Other", "low", "ai_rag") })
}

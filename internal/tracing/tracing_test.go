package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/rcleozier/creator-log/internal/config"
)

func TestInit_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{Insecure: true, SampleRatio: 1}, Service{Name: "creatorlog-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, span := StartSpan(context.Background(), "test", "op")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	End(span, errors.New("boom"))

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := sampler(tt.ratio).Description()
		assert.Contains(t, desc, "ParentBased{root:"+tt.want, "ratio %v", tt.ratio)
	}
}

func TestServiceAttributes(t *testing.T) {
	attrs := Service{Name: "creatorlog", Version: "1.2.3", Environment: "production"}.attributes()
	got := map[string]string{}
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, map[string]string{
		"service.name":           "creatorlog",
		"service.version":        "1.2.3",
		"deployment.environment": "production",
	}, got)

	assert.Len(t, Service{Name: "creatorlog"}.attributes(), 1)
}

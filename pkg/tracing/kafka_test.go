package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInjectTraceContextAppendsHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	headers := InjectTraceContext(ctx, []kafka.Header{})

	require.Len(t, headers, 1)
	assert.Equal(t, "traceparent", headers[0].Key)
	assert.Contains(t, string(headers[0].Value), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestInjectTraceContextWithoutSpanLeavesHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	headers := InjectTraceContext(context.Background(), []kafka.Header{})
	assert.Empty(t, headers)
}

func TestCarrierSetAppendsAndOverwrites(t *testing.T) {
	headers := []kafka.Header{{Key: "traceparent", Value: []byte("old")}}
	carrier := kafkaHeaderCarrier{headers: &headers}

	carrier.Set("traceparent", "new")
	require.Len(t, headers, 1)
	assert.Equal(t, "new", string(headers[0].Value))

	carrier.Set("tracestate", "vendor=1")
	require.Len(t, headers, 2)
	assert.Equal(t, []string{"traceparent", "tracestate"}, carrier.Keys())
	assert.Equal(t, "vendor=1", carrier.Get("tracestate"))
}

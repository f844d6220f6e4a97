package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMeta(t *testing.T) {
	msg := kafka.Message{
		Topic: "catalog.service.changed.v1",
		Key:   []byte("svc-1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("evt-9")},
		},
	}
	meta := ExtractEventMeta(msg)
	assert.Equal(t, "evt-9", meta.EventID)
	assert.Equal(t, "catalog.service.changed.v1", meta.EventType)

	meta = ExtractEventMeta(kafka.Message{Topic: "t", Key: []byte("k")})
	assert.Equal(t, "k", meta.EventID)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092"))
	assert.Nil(t, SplitBrokers(""))
	assert.Nil(t, ReadyCheck(""))
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: "event_id", Value: []byte("1")}})
	require.NotEmpty(t, HeaderValue(headers, "traceparent"))

	got := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(got).TraceID())
}

package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestNewSlotBookedPayload(t *testing.T) {
	slot := model.BookedSlot{
		ID:        "b-1",
		Date:      model.Date{Year: 2026, Month: 10, Day: 19},
		StartTime: timeofday.MustNew(9, 30),
		Users:     []string{"alice"},
	}
	evt, err := NewSlotBooked("svc-1", slot)
	require.NoError(t, err)
	assert.Equal(t, EventSlotBooked, evt.EventType)
	assert.Equal(t, "svc-1", evt.AggregateID)

	var got map[string]any
	require.NoError(t, json.Unmarshal(evt.Payload, &got))
	assert.Equal(t, "2026-10-19", got["date"])
	assert.Equal(t, "09:30", got["start_time"])
	assert.Equal(t, "b-1", got["booking_id"])
}

func TestMessageCarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "book")
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	span.End()

	rec := Record{
		ID:          7,
		EventID:     "evt-7",
		AggregateID: "svc-1",
		EventType:   EventSlotBooked,
		Payload:     []byte(`{}`),
		Traceparent: traceparent,
		Tracestate:  tracestate,
	}
	msg := Message(otelx.ContextWithTraceContext(context.Background(), rec.Traceparent, rec.Tracestate), rec)

	assert.Equal(t, EventSlotBooked, msg.Topic)
	assert.Equal(t, []byte("svc-1"), msg.Key)
	meta := kafkax.ExtractEventMeta(msg)
	assert.Equal(t, "evt-7", meta.EventID)
	assert.Equal(t, EventSlotBooked, meta.EventType)

	got := kafkax.ExtractTraceContext(context.Background(), msg)
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(got).TraceID())
}

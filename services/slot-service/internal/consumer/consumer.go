package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox deduplicates deliveries; Record returns false for an event already handled.
type Inbox interface {
	Record(ctx context.Context, eventID string, eventType string) (bool, error)
}

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	c := &Consumer{
		logger:  logger,
		inbox:   inbox,
		handler: handler,
	}
	if brokers := kafkax.SplitBrokers(cfg.Brokers); len(brokers) > 0 && cfg.Topic != "" {
		c.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	return c
}

// Run reads until ctx is done. Failed messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context) {
	if c.reader == nil {
		c.logger.Warn("kafka consumer disabled (no brokers or topic configured)")
		return
	}
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		_ = c.Process(ctx, msg)
	}
}

// Process runs one message through the inbox and the handler inside a consumer span.
func (c *Consumer) Process(ctx context.Context, msg kafka.Message) error {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return nil
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Run polls the outbox until ctx is done. It returns immediately when no brokers are configured.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 || p.pool == nil {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) error {
	return p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
			if err := writer.WriteMessages(ctx, Message(msgCtx, r)); err != nil {
				return err
			}
			ids = append(ids, r.ID)
		}
		p.logger.Debug("outbox batch published", "count", len(ids))
		return p.repo.MarkPublished(ctx, tx, ids)
	})
}

// Message converts an outbox record into a Kafka message keyed by aggregate,
// carrying the event metadata and the trace context found in ctx.
func Message(ctx context.Context, r Record) kafka.Message {
	msg := kafka.Message{
		Topic: r.EventType,
		Key:   []byte(r.AggregateID),
		Value: r.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(r.EventID)},
			{Key: "event_type", Value: []byte(r.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return msg
}

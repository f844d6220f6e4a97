package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/outbox"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memInbox struct {
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

type recordingInvalidator struct{ ids []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return nil
}

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func changed(eventID, body string) kafka.Message {
	return kafka.Message{
		Topic: outbox.EventServiceChanged,
		Key:   []byte("svc-key"),
		Value: []byte(body),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
		},
	}
}

func TestProcess_InvalidatesOncePerEvent(t *testing.T) {
	inv := &recordingInvalidator{}
	c := New(logger(), &memInbox{seen: map[string]bool{}}, Config{}, CatalogChanged(inv))
	ctx := context.Background()

	require.NoError(t, c.Process(ctx, changed("e1", `{"service_id":"svc-1"}`)))
	require.NoError(t, c.Process(ctx, changed("e1", `{"service_id":"svc-1"}`)))
	require.NoError(t, c.Process(ctx, changed("e2", ``)))

	assert.Equal(t, []string{"svc-1", "svc-key"}, inv.ids)
}

func TestProcess_InboxFailureSkipsHandler(t *testing.T) {
	inv := &recordingInvalidator{}
	c := New(logger(), &memInbox{err: errors.New("db down")}, Config{}, CatalogChanged(inv))

	assert.Error(t, c.Process(context.Background(), changed("e1", `{"service_id":"svc-1"}`)))
	assert.Empty(t, inv.ids)
}

func TestCatalogChanged_RejectsGarbage(t *testing.T) {
	h := CatalogChanged(&recordingInvalidator{})
	assert.Error(t, h(context.Background(), kafka.Message{Topic: "t", Value: []byte("{")}))
	assert.Error(t, h(context.Background(), kafka.Message{Topic: "t"}))
}

func TestRunWithoutBrokersReturns(t *testing.T) {
	c := New(logger(), &memInbox{seen: map[string]bool{}}, Config{Topic: "x"}, CatalogChanged(&recordingInvalidator{}))
	c.Run(context.Background())
}

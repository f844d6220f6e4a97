package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/outbox"
	"github.com/segmentio/kafka-go"
)

type Invalidator interface {
	Invalidate(ctx context.Context, serviceID string) error
}

// CatalogChanged drops cached availability for the service named by a
// catalog.service.changed.v1 event. The message key is used when the payload has no id.
func CatalogChanged(inv Invalidator) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt outbox.ServiceChanged
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode %s: %w", msg.Topic, err)
			}
		}
		if evt.ServiceID == "" {
			evt.ServiceID = string(msg.Key)
		}
		if evt.ServiceID == "" {
			return fmt.Errorf("%s event without service id", msg.Topic)
		}
		return inv.Invalidate(ctx, evt.ServiceID)
	}
}

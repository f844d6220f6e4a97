package kafkax

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck dials the first broker. It returns nil when no brokers are configured
// so /readyz does not fail for deployments running without Kafka.
func ReadyCheck(brokers string) func(context.Context) error {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", list[0])
		if err != nil {
			return errors.Join(errors.New("kafka unreachable"), err)
		}
		return conn.Close()
	}
}

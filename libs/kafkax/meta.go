package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// EventMeta is the metadata every message carries in its headers.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta falls back to the message key and topic for producers that do not set headers.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   HeaderValue(msg.Headers, "event_id"),
		EventType: HeaderValue(msg.Headers, "event_type"),
	}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

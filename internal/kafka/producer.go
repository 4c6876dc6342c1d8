package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// SignalementEventProducer — interface for emitting signalement events (for
// mock substitution in tests).
type SignalementEventProducer interface {
	ProduceSignalementEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer writes signalement events to a Kafka topic (best-effort, never
// blocks the API).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer builds a producer. With empty brokers or topic all methods are
// no-ops.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceSignalementEvent emits one event. payload: signalement_id, status,
// avancement, latitude, longitude, user_id, entreprise_id.
func (p *Producer) ProduceSignalementEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal signalement event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write signalement event: %v", err)
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Kafka publishes order events to a single topic, keyed by order ID so
// events for one order stay in partition order.
type Kafka struct {
	writer *kafkaGo.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkaGo.LeastBytes{},
		},
	}
}

func (k *Kafka) OrderPlaced(ctx context.Context, ev OrderEvent) error {
	return k.publish(ctx, KindOrderPlaced, ev)
}

func (k *Kafka) OrderStatusChanged(ctx context.Context, ev OrderEvent) error {
	return k.publish(ctx, KindOrderStatusChanged, ev)
}

func (k *Kafka) publish(ctx context.Context, kind string, ev OrderEvent) error {
	ev.Kind = kind
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.OrderID), 10)),
		Value: value,
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

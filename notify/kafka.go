package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used by KafkaNotifier.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaNotifier publishes each message as a JSON record keyed by email, so
// messages for one address stay ordered within a partition.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

// NewKafkaNotifier returns a notifier writing to topic through producer.
func NewKafkaNotifier(producer Producer, topic string) (*KafkaNotifier, error) {
	if producer == nil {
		return nil, fmt.Errorf("%w: producer is required", ErrDelivery)
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrDelivery)
	}
	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

// NewKafkaClient dials brokers with topic as the default produce topic.
func NewKafkaClient(brokers []string, topic string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no kafka brokers configured", ErrDelivery)
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	return kgo.NewClient(append(base, opts...)...)
}

func (n *KafkaNotifier) SendOTP(ctx context.Context, email, code string) error {
	return n.publish(ctx, Message{Kind: KindOTP, Email: email, Secret: code})
}

func (n *KafkaNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return n.publish(ctx, Message{Kind: KindPasswordReset, Email: email, Secret: token})
}

func (n *KafkaNotifier) publish(ctx context.Context, m Message) error {
	value, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	rec := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(m.Email),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(m.Kind)},
		},
	}
	if err := n.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

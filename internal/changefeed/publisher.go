package changefeed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"casefile/internal/platform/kafka"
	"casefile/internal/platform/metrics"
)

// Publisher emits profile change events. The service holds one; a nil
// publisher at the call sites means the changefeed is disabled.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// KafkaPublisher publishes events to the changefeed topic, keyed by profile
// ID so all events for one profile land on one partition in order.
type KafkaPublisher struct {
	client  *kafka.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewKafkaPublisher creates a publisher for the given topic. metrics may be
// nil.
func NewKafkaPublisher(client *kafka.Client, topic string, logger *slog.Logger, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic, logger: logger, metrics: m}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	payload, err := event.Encode()
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ProfileID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if p.metrics != nil {
			p.metrics.ChangefeedErrors.Inc()
		}
		return fmt.Errorf("publish changefeed event: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ChangefeedPublished.Inc()
	}
	p.logger.DebugContext(ctx, "changefeed event published",
		"type", event.Type,
		"profile_id", event.ProfileID.String(),
	)
	return nil
}

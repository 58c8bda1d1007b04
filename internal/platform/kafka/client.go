// Package kafka wraps the franz-go client for the changefeed transport.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"casefile/internal/platform/config"
)

// Client wraps a kgo producer client with health checking capabilities.
type Client struct {
	*kgo.Client
}

// New creates a Kafka client from the provided configuration.
// Returns nil if no brokers are configured (changefeed disabled).
func New(cfg config.Kafka, extra ...kgo.Opt) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	opts := append([]kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
	}, extra...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	// Test connection
	if err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (c *Client) EnsureTopic(ctx context.Context, topic string, partitions int32) error {
	adm := kadm.NewClient(c.Client)
	if _, err := adm.CreateTopic(ctx, partitions, 1, nil, topic); err != nil {
		if errors.Is(err, kerr.TopicAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	return nil
}

// Health checks broker reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

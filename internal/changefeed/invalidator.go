package changefeed

import (
	"context"
	"log/slog"

	"casefile/internal/platform/kafka/consumer"
	"casefile/internal/platform/metrics"
	"casefile/internal/profile/cache"
)

// Invalidator consumes the changefeed and drops cached derived values for
// changed profiles. It is the accept side of the cache-bust hook: the
// instance that saved a profile invalidates locally, every other instance
// converges through this consumer.
type Invalidator struct {
	cache   cache.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewInvalidator wires the changefeed into a cache. metrics may be nil.
func NewInvalidator(cacheStore cache.Store, logger *slog.Logger, m *metrics.Metrics) *Invalidator {
	return &Invalidator{cache: cacheStore, logger: logger, metrics: m}
}

// Handle implements consumer.Handler. Malformed events are logged and
// committed rather than redelivered forever; invalidation failures are
// returned so the message stays uncommitted and retries.
func (i *Invalidator) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := DecodeEvent(msg.Value)
	if err != nil {
		if i.metrics != nil {
			i.metrics.ChangefeedErrors.Inc()
		}
		i.logger.WarnContext(ctx, "dropping malformed changefeed event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if err := i.cache.Invalidate(ctx, event.ProfileID, event.Labels...); err != nil {
		if i.metrics != nil {
			i.metrics.ChangefeedErrors.Inc()
		}
		return err
	}

	if i.metrics != nil {
		i.metrics.ChangefeedConsumed.Inc()
	}
	i.logger.DebugContext(ctx, "cache invalidated from changefeed",
		"type", event.Type,
		"profile_id", event.ProfileID.String(),
	)
	return nil
}

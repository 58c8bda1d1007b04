package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Ops.Addr)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Empty(t, cfg.RMS.URL, "no mirror linked unless configured")
	assert.Empty(t, cfg.Redis.URL, "memory cache unless configured")
	assert.Zero(t, cfg.Review.PeriodMonths, "review period must not default")
	assert.Equal(t, "casefile.profile.events", cfg.Kafka.Topic)
	assert.Equal(t, "/images/profile-placeholder.png", cfg.DefaultImageURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CASEFILE_OPS_ADDR", ":7070")
	t.Setenv("CASEFILE_REVIEW_PERIOD_MONTHS", "6")
	t.Setenv("CASEFILE_CACHE_TTL", "15m")
	t.Setenv("CASEFILE_KAFKA_BROKERS", "broker-a:9092, broker-b:9092,")

	cfg := FromEnv()

	assert.Equal(t, ":7070", cfg.Ops.Addr)
	assert.Equal(t, 6, cfg.Review.PeriodMonths)
	assert.Equal(t, 15*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnv_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("CASEFILE_REVIEW_PERIOD_MONTHS", "six")
	t.Setenv("CASEFILE_DB_MAX_OPEN_CONNS", "lots")

	cfg := FromEnv()

	assert.Zero(t, cfg.Review.PeriodMonths)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Booking.TxTimeout)
	assert.Equal(t, 10, cfg.Booking.NotificationPageSize)
	assert.Equal(t, 2, cfg.Booking.SlotGenerationWeeks)
	assert.Equal(t, time.Minute, cfg.Worker.SlotRetireInterval)
	assert.Equal(t, "redis", cfg.Delivery.Broker)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
}

func TestParseConfig_EnvOverride(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BOOKING_TX_TIMEOUT", "250ms")

	v, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Booking.TxTimeout)
}

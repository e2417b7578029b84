package mq

import (
	"compressed-indexer-sol/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerConfig(t *testing.T) {
	cm := producerConfig(config.KafkaProducerConfig{Brokers: "k1:9092,k2:9092", LingerMs: -1}, "10.0.0.1")

	get := func(key string) any {
		v, err := cm.Get(key, nil)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "k1:9092,k2:9092", get("bootstrap.servers"))
	assert.Equal(t, "compressed-indexer-10.0.0.1", get("client.id"))
	assert.Equal(t, defaultBatchSize, get("batch.size"))
	assert.Equal(t, defaultLingerMs, get("linger.ms"))
	assert.Equal(t, true, get("enable.idempotence"))

	cm = producerConfig(config.KafkaProducerConfig{BatchSize: 1024, LingerMs: 0}, "h")
	assert.Equal(t, 1024, get("batch.size"))
	assert.Equal(t, 0, get("linger.ms"))
}

func TestReplicationFactor(t *testing.T) {
	assert.Equal(t, 1, replicationFactor(0))
	assert.Equal(t, 1, replicationFactor(1))
	assert.Equal(t, 2, replicationFactor(3))
}

package config

import (
	"compressed-indexer-sol/internal/consts"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GRPC_X_TOKEN", "env-token")
	path := writeConfig(t, `
grpc:
  endpoint: "localhost:10000"
  reconnect_interval_sec: 3
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:10000", c.Grpc.Endpoint)
	assert.Equal(t, "env-token", c.Grpc.XToken)
	assert.Equal(t, 3, c.Grpc.ReconnectIntervalSec)
	assert.Equal(t, 30, c.Grpc.MaxReconnectIntervalSec)
	assert.Equal(t, 10, c.Grpc.StreamPingIntervalSec)
	assert.Equal(t, 64*1024*1024, c.Grpc.MaxCallRecvMsgSize)
	assert.Equal(t, "info", c.LogConf.Level)
	assert.Equal(t, "console", c.LogConf.Format)
	assert.Equal(t, "light-observations", c.KafkaProducerConf.Topic)
	assert.Equal(t, 1, c.KafkaProducerConf.Partitions)
	assert.False(t, c.KafkaProducerConf.Enabled())
}

func TestLoad_ExplicitTokenWins(t *testing.T) {
	t.Setenv("GRPC_X_TOKEN", "env-token")
	c, err := Load(writeConfig(t, `
grpc:
  endpoint: "localhost:10000"
  x_token: "file-token"
kafka_producer:
  brokers: "k1:9092, k2:9092"
`))
	require.NoError(t, err)
	assert.Equal(t, "file-token", c.Grpc.XToken)
	assert.True(t, c.KafkaProducerConf.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "logger:\n  level: debug\n"))
	assert.ErrorContains(t, err, "grpc.endpoint")

	// Parse 不要求 endpoint
	c, err := Parse(writeConfig(t, "logger:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogConf.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "grpc: [1, 2"))
	assert.Error(t, err)
}

func TestLightConfig_ToPrograms(t *testing.T) {
	var empty LightConfig
	p, err := empty.ToPrograms()
	require.NoError(t, err)
	assert.Equal(t, consts.DefaultPrograms(), p)

	override := LightConfig{
		NoopProgram:                 consts.CTokenProgramStr,
		CompressedMintDiscriminator: []int{1, 2, 3, 4, 5, 6, 7, 8},
	}
	p, err = override.ToPrograms()
	require.NoError(t, err)
	assert.Equal(t, consts.CTokenProgram, p.Noop)
	assert.Equal(t, consts.LightSystemProgram, p.LightSystem)
	assert.Equal(t, byte(8), p.CompressedMintDiscriminator[7])

	bad := []LightConfig{
		{LightSystemProgram: "not-base58-0OIl"},
		{CompressedMintDiscriminator: []int{1, 2, 3}},
		{CompressedMintDiscriminator: []int{0, 0, 0, 0, 0, 0, 0, 256}},
	}
	for _, c := range bad {
		_, err := c.ToPrograms()
		assert.Error(t, err, "%+v", c)
	}
}

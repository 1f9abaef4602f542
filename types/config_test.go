package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "0.0.0.0:9092", cfg.Address())
	require.Equal(t, int32(100*1024*1024), cfg.MaxMessageSize)
	require.Equal(t, "INFO", cfg.LogLevel)
	require.Empty(t, cfg.MetricsAddr)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvBrokerPort: "19092", EnvLogLevel: "debug"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))
	require.Equal(t, uint32(19092), cfg.BrokerPort)
	require.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())

	env[EnvBrokerPort] = "not-a-port"
	require.Error(t, cfg.ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMessageSize = 7
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LogLevel = "LOUD"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BrokerPort = 70000
	require.Error(t, cfg.Validate())
}

func TestAddressIPv6(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BrokerHost = "::1"
	cfg.BrokerPort = 0
	require.Equal(t, "[::1]:0", cfg.Address())
}

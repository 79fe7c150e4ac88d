package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(map[string]any{KeyDBURL: "postgres://localhost/analytics"}))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, StoragePostgres, cfg.Storage)
	require.Equal(t, StrategyCompiled, cfg.QueryStrategy)
	require.Equal(t, 30*time.Second, cfg.QueryCacheTTL)
	require.Equal(t, 300, cfg.RateLimitPerMinute)
	require.Equal(t, map[string]string{"tenant-key-123": "tenant1"}, cfg.APIKeys)
}

func TestLoadMemoryForcesScan(t *testing.T) {
	cfg, err := Load(newViper(map[string]any{
		KeyStorage:       "Memory",
		KeyQueryStrategy: StrategyCompiled,
		KeyQueryCacheTTL: "5s",
	}))
	require.NoError(t, err)
	require.Equal(t, StorageMemory, cfg.Storage)
	require.Equal(t, StrategyScan, cfg.QueryStrategy)
	require.Equal(t, 5*time.Second, cfg.QueryCacheTTL)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"postgres without url", map[string]any{}},
		{"unknown storage", map[string]any{KeyStorage: "sqlite"}},
		{"unknown strategy", map[string]any{KeyDBURL: "postgres://x", KeyQueryStrategy: "magic"}},
		{"zero ttl", map[string]any{KeyStorage: StorageMemory, KeyQueryCacheTTL: "0s"}},
		{"zero limit", map[string]any{KeyStorage: StorageMemory, KeyRateLimitPerMin: 0}},
		{"bad api keys", map[string]any{KeyStorage: StorageMemory, KeyAPIKeys: "tenant1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(tt.values))
			require.Error(t, err)
		})
	}
}

func TestParseAPIKeys(t *testing.T) {
	keys, err := ParseAPIKeys(" tenant1:key-a , tenant2:key-b,")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"key-a": "tenant1", "key-b": "tenant2"}, keys)

	_, err = ParseAPIKeys("tenant1:")
	require.Error(t, err)
	_, err = ParseAPIKeys(":key")
	require.Error(t, err)
}

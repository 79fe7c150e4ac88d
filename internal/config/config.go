package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. Each is read from the environment variable of the
// same name and may be overridden by a bound CLI flag.
const (
	KeyHTTPAddr          = "HTTP_ADDR"
	KeyDBURL             = "DB_URL"
	KeyStorage           = "STORAGE"
	KeyQueryStrategy     = "QUERY_STRATEGY"
	KeyRedisAddr         = "REDIS_ADDR"
	KeyRedisPassword     = "REDIS_PASSWORD"
	KeyQueryCacheTTL     = "QUERY_CACHE_TTL"
	KeyRateLimitPerMin   = "API_KEY_RATE_LIMIT_PER_MINUTE"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyAPIKeys           = "API_KEYS"
	StoragePostgres      = "postgres"
	StorageMemory        = "memory"
	StrategyCompiled     = "compiled"
	StrategyScan         = "scan"
	defaultQueryCacheTTL = 30 * time.Second
)

// Config contains runtime configuration required by the service.
type Config struct {
	HTTPAddr           string
	DBURL              string
	Storage            string
	QueryStrategy      string
	RedisAddr          string
	RedisPassword      string
	QueryCacheTTL      time.Duration
	RateLimitPerMinute int
	LogLevel           string
	LogFormat          string
	APIKeys            map[string]string // apiKey -> tenantID
}

// SetDefaults registers defaults and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyStorage, StoragePostgres)
	v.SetDefault(KeyQueryStrategy, StrategyCompiled)
	v.SetDefault(KeyQueryCacheTTL, defaultQueryCacheTTL)
	v.SetDefault(KeyRateLimitPerMin, 300)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.AutomaticEnv()
}

// Load reads configuration from v.
// API_KEYS format: "tenant1:key1,tenant2:key2"
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:           strings.TrimSpace(v.GetString(KeyHTTPAddr)),
		DBURL:              strings.TrimSpace(v.GetString(KeyDBURL)),
		Storage:            strings.ToLower(strings.TrimSpace(v.GetString(KeyStorage))),
		QueryStrategy:      strings.ToLower(strings.TrimSpace(v.GetString(KeyQueryStrategy))),
		RedisAddr:          strings.TrimSpace(v.GetString(KeyRedisAddr)),
		RedisPassword:      v.GetString(KeyRedisPassword),
		QueryCacheTTL:      v.GetDuration(KeyQueryCacheTTL),
		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMin),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          strings.ToLower(v.GetString(KeyLogFormat)),
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBURL == "" {
			return Config{}, errors.New("DB_URL required")
		}
	case StorageMemory:
		// nothing to push aggregation down to
		cfg.QueryStrategy = StrategyScan
	default:
		return Config{}, fmt.Errorf("STORAGE must be %q or %q", StoragePostgres, StorageMemory)
	}
	if cfg.QueryStrategy != StrategyCompiled && cfg.QueryStrategy != StrategyScan {
		return Config{}, fmt.Errorf("QUERY_STRATEGY must be %q or %q", StrategyCompiled, StrategyScan)
	}
	if cfg.QueryCacheTTL <= 0 {
		return Config{}, errors.New("QUERY_CACHE_TTL must be positive")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return Config{}, errors.New("API_KEY_RATE_LIMIT_PER_MINUTE must be positive")
	}

	apiKeys, err := ParseAPIKeys(v.GetString(KeyAPIKeys))
	if err != nil {
		return Config{}, err
	}
	cfg.APIKeys = apiKeys
	return cfg, nil
}

// ParseAPIKeys parses "tenant:key" pairs into a key -> tenant map.
func ParseAPIKeys(raw string) (map[string]string, error) {
	apiKeys := map[string]string{}

	for _, p := range strings.Split(strings.TrimSpace(raw), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(`API_KEYS must be "tenant:key,tenant:key"`)
		}
		tenant := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if tenant == "" || key == "" {
			return nil, errors.New(`API_KEYS must be "tenant:key,tenant:key"`)
		}
		apiKeys[key] = tenant
	}

	// Local dev fallback so the service runs out-of-the-box.
	if len(apiKeys) == 0 {
		apiKeys["tenant-key-123"] = "tenant1"
	}
	return apiKeys, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PratikDhanave/analytics-workspace/internal/config"
)

// main boots the CLI: config → storage → engine → HTTP server (serve) or
// demo data provisioning (seed).
func main() {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "Multi-tenant product analytics API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Command-line flags override the environment variable of the same key.
	flags := rootCmd.PersistentFlags()
	flags.String("db-url", "", "Postgres connection URL (DB_URL)")
	flags.String("storage", config.StoragePostgres, "Event storage: postgres or memory (STORAGE)")
	flags.String("query-strategy", config.StrategyCompiled, "Query strategy: compiled or scan (QUERY_STRATEGY)")
	flags.String("redis-addr", "", "Redis address for the shared cache and rate limiter (REDIS_ADDR)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error (LOG_LEVEL)")
	flags.String("log-format", "text", "Log format: text or json (LOG_FORMAT)")
	for key, flag := range map[string]string{
		config.KeyDBURL:         "db-url",
		config.KeyStorage:       "storage",
		config.KeyQueryStrategy: "query-strategy",
		config.KeyRedisAddr:     "redis-addr",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFormat:     "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(newServeCmd(v), newSeedCmd(v))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

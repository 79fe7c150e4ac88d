package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PratikDhanave/analytics-workspace/internal/config"
	"github.com/PratikDhanave/analytics-workspace/internal/sampledata"
)

func newSeedCmd(v *viper.Viper) *cobra.Command {
	var (
		tenant       string
		days         int
		eventsPerDay int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision the demo dataset for one tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenant == "" {
				return errors.New("--tenant is required")
			}
			return runSeed(cmd.Context(), v, tenant, days, eventsPerDay)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant to seed")
	cmd.Flags().IntVar(&days, "days", sampledata.DefaultDays, "Number of days ending today")
	cmd.Flags().IntVar(&eventsPerDay, "events-per-day", sampledata.DefaultEventsPerDay, "Events generated per day")
	return cmd
}

func runSeed(ctx context.Context, v *viper.Viper, tenant string, days, eventsPerDay int) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.Storage == config.StorageMemory {
		return errors.New("seed needs STORAGE=postgres; the memory store does not outlive the command")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	events := sampledata.Build(tenant, days, eventsPerDay, time.Now())
	inserted, err := a.store.InsertEvents(ctx, events)
	if err != nil {
		return err
	}
	if _, err := a.sweepSharedCache(ctx, tenant); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"tenant":   tenant,
		"inserted": inserted,
		"total":    len(events),
	}).Info("sample data provisioned")
	return nil
}

// sweepSharedCache drops the tenant's cached results when the cache is
// shared through Redis. Without Redis the server's cache lives in another
// process and its entries expire by TTL.
func (a *app) sweepSharedCache(ctx context.Context, tenant string) (bool, error) {
	if a.redis == nil {
		a.log.WithFields(logrus.Fields{
			"tenant": tenant,
			"ttl":    a.cfg.QueryCacheTTL,
		}).Info("no shared cache configured, server results expire by TTL")
		return false, nil
	}
	return true, a.queries.InvalidateTenant(ctx, tenant)
}

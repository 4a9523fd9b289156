package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tingold/orb-geometa/internal/cache"
	"github.com/tingold/orb-geometa/internal/config"
	"github.com/tingold/orb-geometa/internal/logger"
	"github.com/tingold/orb-geometa/internal/metrics"
	"github.com/tingold/orb-geometa/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mp := metrics.Init(metrics.Config{Build: metrics.CurrentBuild()})
			c, err := openCache(ctx, a.cfg, mp)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			x := a.extractor()
			x.Observer = mp
			s := server.New(x, server.Options{
				Cache:      c,
				Metrics:    mp,
				Logger:     logger.Log(),
				PGDefaults: a.cfg.PG,
			})
			return s.Run(ctx, a.cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "Listen address")
	cmd.Flags().StringVar(&a.cfg.Cache, "cache", a.cfg.Cache, "Cache backend (none, lru, redis)")
	return cmd
}

func openCache(ctx context.Context, cfg config.Config, counter cache.Counter) (*cache.Cache, error) {
	var store cache.Store
	switch cfg.Cache {
	case config.CacheNone:
		return nil, nil
	case config.CacheLRU:
		store = cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		store = r
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
	logger.Info("metadata cache enabled", "backend", cfg.Cache)
	return cache.New(store, counter, logger.Log()), nil
}

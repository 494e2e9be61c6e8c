package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/loop-pattern/pkg/config"
	"github.com/Sternrassler/loop-pattern/pkg/logging"
	"github.com/Sternrassler/loop-pattern/pkg/render"
	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/Sternrassler/loop-pattern/pkg/store/memstore"
	"github.com/Sternrassler/loop-pattern/pkg/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds the wired components shared by all subcommands.
type app struct {
	cfg    config.Config
	logger zerolog.Logger

	executor scheduler.QueryExecutor
	put      putFunc
	redis    *redis.Client

	sched *scheduler.Scheduler
	views *render.Views
}

// putFunc stores one item in a collection.
type putFunc func(ctx context.Context, collection string, rank float64, item scheduler.Item) error

// loadConfig reads the --config flag and sets up global logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Logging())
	return cfg, nil
}

// newApp connects the configured store and builds the scheduler.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.NewLogger(logging.ComponentServer),
		views:  render.NewViews(cfg.ViewsDir),
	}

	switch cfg.Store.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Store.Redis.Addr,
			DB:   cfg.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		a.logger.Info().Str("addr", cfg.Store.Redis.Addr).Int("db", cfg.Store.Redis.DB).Msg("Connected to Redis")

		rs := redisstore.New(client, cfg.Store.Redis.Prefix)
		a.redis = client
		a.executor = rs
		a.put = rs.Put
	default:
		ms := memstore.New()
		a.executor = ms
		a.put = func(ctx context.Context, collection string, rank float64, item scheduler.Item) error {
			ms.Put(collection, int64(rank), item)
			return nil
		}
	}

	sc, err := cfg.Scheduler()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sched, err = scheduler.New(sc, a.executor)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// seed loads every collection in s through the app's store.
func (a *app) seed(ctx context.Context, s config.Seed) (int, error) {
	n := 0
	for _, name := range sortedCollections(s) {
		for _, it := range s.Collections[name] {
			item := scheduler.Item{ID: it.ID, Fields: it.Fields}
			if err := a.put(ctx, name, *it.Rank, item); err != nil {
				return n, fmt.Errorf("seed %s/%s: %w", name, it.ID, err)
			}
			n++
		}
		a.logger.Debug().Str("collection", name).Int("items", len(s.Collections[name])).Msg("Seeded collection")
	}
	return n, nil
}

// Close releases the Redis connection, if any.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

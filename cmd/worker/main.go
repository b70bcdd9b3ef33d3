// cmd/worker runs cache maintenance off the request hot path: an asynq
// scheduler enqueues periodic cleanup tasks and an asynq server executes them.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/internal/config"
	"github.com/ekimeshi/ekimeshi/internal/jobs"
	"github.com/ekimeshi/ekimeshi/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

	store, cleanup, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("cache store error: %v", err)
	}
	defer cleanup()

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	task, err := jobs.NewCacheCleanupTask("scheduled")
	if err != nil {
		log.Fatalf("build cleanup task: %v", err)
	}
	if _, err := scheduler.Register("@every "+cfg.CleanupInterval.String(), task); err != nil {
		log.Fatalf("register cleanup schedule: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("scheduler error: %v", err)
		}
	}()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			"default": 5,
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskCacheCleanup, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.CacheCleanupPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Error().Err(err).Msg("bad cleanup payload")
			return err
		}
		start := time.Now()
		removed, err := store.DeleteExpired(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("delete expired failed")
			return err // retryable
		}
		telemetry.ExpiredEntriesDeleted.Add(float64(removed))
		logger.Info().
			Int64("removed", removed).
			Dur("duration", time.Since(start)).
			Str("reason", p.Reason).
			Msg("cache sweep done")
		return nil
	})

	logger.Info().Str("redis", cfg.RedisAddr).Msg("worker running")
	log.Fatal(srv.Run(mux))
}

func newStore(cfg config.Config, logger zerolog.Logger) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewPostgresStore(pool, logger)
		if err := store.Migrate(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.BackendSQLite:
		store, err := cache.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return cache.NewMemoryStore(), func() {}, nil
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/ekimeshi/ekimeshi/internal/cache"
	"github.com/ekimeshi/ekimeshi/internal/config"
	"github.com/ekimeshi/ekimeshi/internal/http/routes"
	"github.com/ekimeshi/ekimeshi/internal/search"
	"github.com/ekimeshi/ekimeshi/internal/stations"
	"github.com/ekimeshi/ekimeshi/places"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Info().Str("port", cfg.Port).Str("cache_backend", cfg.CacheBackend).Msg("starting api")

	// Cache store
	store, cleanup, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("cache store error: %v", err)
	}
	defer cleanup()

	// Provider gateway
	opts := []places.Option{places.WithLanguage(cfg.Places.Language)}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	gateway, err := places.New(cfg.Places.APIKey, opts...)
	if err != nil {
		log.Fatalf("places client error: %v", err)
	}

	// Sessions carry the per-user keyword registry.
	sess := scs.New()
	sess.Lifetime = 30 * 24 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode

	s := routes.New(routes.ServerOptions{
		Sess:     sess,
		Search:   search.NewOrchestrator(gateway, store, logger, cfg.SearchConcurrency),
		Stations: stations.NewResolver(gateway, store, logger),
		Geocoder: gateway,
		Store:    store,
		Log:      logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: sess.LoadAndSave(h)}
	log.Fatal(srv.ListenAndServe())
}

// newStore builds the configured cache backend. The returned cleanup closes
// any underlying pool.
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

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore persists cache entries in a relational table. Hit counting and
// lazy expiry happen in SQL so concurrent readers stay consistent without
// application-level locking.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, log: log}
}

// Migrate creates the cache table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cache_entries (
			cache_type text NOT NULL,
			cache_key  text NOT NULL,
			payload    jsonb NOT NULL,
			created_at timestamptz NOT NULL,
			expires_at timestamptz NOT NULL,
			hit_count  bigint NOT NULL DEFAULT 0,
			PRIMARY KEY (cache_type, cache_key)
		)`)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, typ Type, key string) (json.RawMessage, bool) {
	var payload json.RawMessage
	err := p.pool.QueryRow(ctx, `
		UPDATE cache_entries
		SET hit_count = hit_count + 1
		WHERE cache_type = $1 AND cache_key = $2 AND expires_at > now()
		RETURNING payload`,
		string(typ), key).Scan(&payload)
	if err == nil {
		return payload, true
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazy expiry: drop the stale row if that is why we missed.
		if _, delErr := p.pool.Exec(ctx, `
			DELETE FROM cache_entries
			WHERE cache_type = $1 AND cache_key = $2 AND expires_at <= now()`,
			string(typ), key); delErr != nil {
			p.log.Debug().Err(delErr).Str("cache_type", string(typ)).Msg("lazy expiry delete failed")
		}
		return nil, false
	}
	// Store unavailable: treat as a miss, never as an error.
	p.log.Debug().Err(err).Str("cache_type", string(typ)).Msg("cache read failed")
	return nil, false
}

func (p *PostgresStore) Set(ctx context.Context, typ Type, key string, payload json.RawMessage, ttl time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO cache_entries (cache_type, cache_key, payload, created_at, expires_at, hit_count)
		VALUES ($1, $2, $3, now(), now() + make_interval(secs => $4), 0)
		ON CONFLICT (cache_type, cache_key) DO UPDATE
		SET payload = excluded.payload,
		    created_at = excluded.created_at,
		    expires_at = excluded.expires_at,
		    hit_count = 0`,
		string(typ), key, payload, ttl.Seconds())
	if err != nil {
		p.log.Debug().Err(err).Str("cache_type", string(typ)).Msg("cache write failed")
	}
	return err
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheRecord is the gorm model backing SQLiteStore. Timestamps are epoch
// seconds to keep the file format trivial to inspect.
type cacheRecord struct {
	CacheType string `gorm:"primaryKey;column:cache_type"`
	CacheKey  string `gorm:"primaryKey;column:cache_key"`
	Payload   []byte `gorm:"column:payload"`
	CreatedAt int64  `gorm:"column:created_at"`
	ExpiresAt int64  `gorm:"column:expires_at"`
	HitCount  int64  `gorm:"column:hit_count"`
}

func (cacheRecord) TableName() string { return "cache_entries" }

// SQLiteStore is the embedded durable Store, the server-side analog of the
// browser's persisted cache. Uses the pure-Go sqlite driver so deployments
// stay cgo-free.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// cache table. Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&cacheRecord{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, typ Type, key string) (json.RawMessage, bool) {
	var rec cacheRecord
	err := s.db.WithContext(ctx).
		Where("cache_type = ? AND cache_key = ?", string(typ), key).
		First(&rec).Error
	if err != nil {
		return nil, false
	}
	if rec.ExpiresAt <= s.now().Unix() {
		s.db.WithContext(ctx).
			Where("cache_type = ? AND cache_key = ?", string(typ), key).
			Delete(&cacheRecord{})
		return nil, false
	}
	s.db.WithContext(ctx).Model(&cacheRecord{}).
		Where("cache_type = ? AND cache_key = ?", string(typ), key).
		UpdateColumn("hit_count", gorm.Expr("hit_count + 1"))
	return rec.Payload, true
}

func (s *SQLiteStore) Set(ctx context.Context, typ Type, key string, payload json.RawMessage, ttl time.Duration) error {
	now := s.now()
	rec := cacheRecord{
		CacheType: string(typ),
		CacheKey:  key,
		Payload:   payload,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		HitCount:  0,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_type"}, {Name: "cache_key"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now().Unix()).
		Delete(&cacheRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// HitCount reports the stored hit counter for an entry, ignoring expiry.
func (s *SQLiteStore) HitCount(ctx context.Context, typ Type, key string) (int64, error) {
	var rec cacheRecord
	err := s.db.WithContext(ctx).
		Where("cache_type = ? AND cache_key = ?", string(typ), key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.HitCount, nil
}

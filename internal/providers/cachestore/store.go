// Package cachestore implements the durable cache store (spec
// component D) on top of go.etcd.io/bbolt: a single embedded file with
// an explicit schema_version and ordered, additive migrations.
package cachestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

var (
	bucketDocs = []byte("docs")
	bucketMeta = []byte("meta")
	keySchema  = []byte("schema_version")
)

// currentSchemaVersion is bumped whenever migrate gains a new step.
const currentSchemaVersion = 2

// record is the on-disk shape of one cache row, matching spec §4.D's
// conceptual schema: (key, content, tokens, url, fetched_at, ttl_ms,
// version).
type record struct {
	Content   string `json:"content"`
	Tokens    int    `json:"tokens"`
	URL       string `json:"url"`
	FetchedAt int64  `json:"fetched_at"`
	TTLMs     int64  `json:"ttl_ms"`
	Version   int    `json:"version"` // schema version this row was written under
}

// Store is a bbolt-backed core.Cache.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ core.Cache = (*Store)(nil)

// Open opens (creating if absent) the cache file at path, running any
// pending migrations before returning.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, core.NewError(core.ErrCacheError, "opening cache file").WithCause(err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs ordered, additive schema migrations. A migration that
// cannot preserve existing data drops and recreates the docs bucket;
// every migration currently defined is additive.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketDocs); err != nil {
			return err
		}

		stored := 0
		if b := meta.Get(keySchema); b != nil {
			stored = int(binary.BigEndian.Uint64(b))
		}

		for v := stored; v < currentSchemaVersion; v++ {
			if err := migrations[v](tx); err != nil {
				return fmt.Errorf("migration %d->%d: %w", v, v+1, err)
			}
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(currentSchemaVersion))
		return meta.Put(keySchema, buf)
	})
}

// migrations[i] upgrades schema version i to i+1. All entries here are
// additive: existing rows are preserved, only decoded with zero values
// for fields that didn't exist yet.
var migrations = []func(tx *bbolt.Tx) error{
	0: func(tx *bbolt.Tx) error { return nil }, // v0->v1: bucket creation only
	1: func(tx *bbolt.Tx) error { return nil }, // v1->v2: added Tokens field, decoded as 0 on old rows
}

// Get returns (nil, nil) on a miss or an expired entry (lazy expiration:
// the row stays on disk until Purge runs, per spec §4.D).
func (s *Store) Get(ctx context.Context, key string) (*core.Document, error) {
	var rec *record
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketDocs).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, core.NewError(core.ErrCacheError, "reading cache entry").WithCause(err)
	}
	if rec == nil {
		return nil, nil
	}

	doc := &core.Document{
		CanonicalID: key,
		Content:     rec.Content,
		TokenCount:  rec.Tokens,
		Source:      core.SourceCache,
		SourceURL:   rec.URL,
		FetchedAt:   rec.FetchedAt,
		TTLMs:       rec.TTLMs,
	}
	if doc.Expired(s.now()) {
		return nil, nil
	}
	return doc, nil
}

// Put writes doc under key, overwriting any existing entry.
func (s *Store) Put(ctx context.Context, key string, doc *core.Document) error {
	rec := record{
		Content:   doc.Content,
		Tokens:    doc.TokenCount,
		URL:       doc.SourceURL,
		FetchedAt: doc.FetchedAt,
		TTLMs:     doc.TTLMs,
		Version:   currentSchemaVersion,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return core.NewError(core.ErrCacheError, "encoding cache entry").WithCause(err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(key), raw)
	})
	if err != nil {
		return core.NewError(core.ErrCacheError, "writing cache entry").WithCause(err)
	}
	return nil
}

// Stats reports entry count and total stored bytes. HitRateWindow is
// left at zero here; it is tracked by the metrics layer (spec §4.N),
// not by the store itself.
func (s *Store) Stats(ctx context.Context) (core.CacheStats, error) {
	var stats core.CacheStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		return b.ForEach(func(k, v []byte) error {
			stats.Entries++
			stats.TotalBytes += int64(len(v))
			return nil
		})
	})
	if err != nil {
		return core.CacheStats{}, core.NewError(core.ErrCacheError, "reading cache stats").WithCause(err)
	}
	return stats, nil
}

// Purge deletes every entry for which predicate returns true, returning
// the count removed. A nil predicate always evaluates to true.
func (s *Store) Purge(ctx context.Context, predicate func(key string, doc *core.Document) bool) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		var toDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			doc := &core.Document{
				CanonicalID: string(k),
				Content:     r.Content,
				TokenCount:  r.Tokens,
				SourceURL:   r.URL,
				FetchedAt:   r.FetchedAt,
				TTLMs:       r.TTLMs,
			}
			match := predicate == nil || predicate(string(k), doc)
			if match {
				key := make([]byte, len(k))
				copy(key, k)
				toDelete = append(toDelete, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(toDelete)
		return nil
	})
	if err != nil {
		return 0, core.NewError(core.ErrCacheError, "purging cache").WithCause(err)
	}
	return removed, nil
}

// Package store persists normalized listing items in a bbolt database keyed
// by item id. It doubles as a long-lived cache and a record of every item the
// service has ever seen, with merge-on-conflict update semantics.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
	"listings-api-go/utils"
)

const bucketName = "items"

// Status values reported by the health endpoint.
const (
	StatusHealthy = "healthy"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// Record is the durable superset of a normalized item.
//
// ViewCount counts re-ingestions, not user views: every Upsert of an already
// known id increments it. Callers wanting a true user-view counter must track
// that elsewhere. Popularity is the maximum likeCount ever observed for the
// id and never decreases.
type Record struct {
	Item           providers.Item `json:"item"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastUpdatedAt  time.Time      `json:"lastUpdatedAt"`
	ViewCount      int            `json:"viewCount"`
	Popularity     int            `json:"popularity"`
	SourceProvider string         `json:"sourceProvider"`
}

// ItemStore wraps a bbolt database holding one Record per item id.
type ItemStore struct {
	db          *bolt.DB
	dbPath      string
	compression bool
	now         func() time.Time
}

// Open creates or opens the item store at dbPath. The parent directory is
// created if needed.
func Open(dbPath string, compression bool) (*ItemStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create items bucket: %v", err)
	}

	log.Infof("%s Item store initialized at %s (compression: %v)", logcolors.LogStoreInit, dbPath, compression)
	return &ItemStore{db: db, dbPath: dbPath, compression: compression, now: time.Now}, nil
}

// SetClock replaces the time source. Intended for tests.
func (s *ItemStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ItemStore) encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if !s.compression {
		return data, nil
	}
	compressed, err := utils.CompressString(string(data))
	if err != nil {
		return nil, err
	}
	return []byte(compressed), nil
}

func (s *ItemStore) decode(data []byte) (Record, error) {
	var rec Record
	raw := string(data)
	if s.compression {
		decompressed, err := utils.DecompressString(raw)
		if err == nil {
			raw = decompressed
		}
		// Fall through on error: entries written before the compression
		// flag was flipped are plain JSON.
	}
	err := json.Unmarshal([]byte(raw), &rec)
	return rec, err
}

// Upsert inserts or merges an item.
//
// Insert: createdAt = now, viewCount = 0, popularity = likeCount.
// Merge: createdAt kept, lastUpdatedAt = now, viewCount incremented,
// popularity = max(existing, incoming likeCount), every other field
// overwritten by the incoming item.
func (s *ItemStore) Upsert(item providers.Item) error {
	if item.ID == "" {
		return fmt.Errorf("refusing to upsert item with empty id")
	}

	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		rec := Record{
			Item:           item,
			CreatedAt:      now,
			LastUpdatedAt:  now,
			ViewCount:      0,
			Popularity:     item.LikeCount,
			SourceProvider: item.Provider,
		}

		if existing := b.Get([]byte(item.ID)); existing != nil {
			old, err := s.decode(existing)
			if err != nil {
				log.Warnf("%s Unreadable record for %s, overwriting: %v", logcolors.LogStore, item.ID, err)
			} else {
				rec.CreatedAt = old.CreatedAt
				rec.ViewCount = old.ViewCount + 1
				if old.Popularity > item.LikeCount {
					rec.Popularity = old.Popularity
				}
			}
		}

		data, err := s.encode(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(item.ID), data)
	})
}

// matches reports whether a record passes the keyword filter: a
// case-sensitive prefix match on title. An empty keyword matches everything.
func matches(rec Record, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.HasPrefix(rec.Item.Title, keyword)
}

// scan loads every matching record. bbolt has no secondary indexes, so
// ordering happens in memory; the corpus stays small enough (retention keeps
// it to ~weeks of items) for a full scan per query.
func (s *ItemStore) scan(keyword string) ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.ForEach(func(k, v []byte) error {
			rec, err := s.decode(v)
			if err != nil {
				log.Warnf("%s Skipping unreadable record %s: %v", logcolors.LogStore, string(k), err)
				return nil
			}
			if matches(rec, keyword) {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	return recs, err
}

// Query returns up to limit records matching keyword, skipping offset
// records, ordered by lastUpdatedAt descending so the most recently refreshed
// items surface first.
func (s *ItemStore) Query(limit, offset int, keyword string) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := s.scan(keyword)
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].LastUpdatedAt.After(recs[j].LastUpdatedAt)
	})

	if offset >= len(recs) {
		return nil, nil
	}
	recs = recs[offset:]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Count returns the number of records matching keyword.
func (s *ItemStore) Count(keyword string) (int, error) {
	recs, err := s.scan(keyword)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// DeleteOlderThan removes every record whose createdAt precedes cutoff in a
// single batched transaction and returns the number deleted.
func (s *ItemStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			rec, err := s.decode(v)
			if err != nil {
				// Unreadable records count as stale.
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if rec.CreatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})

	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		log.Infof("%s Deleted %d record(s) created before %s", logcolors.LogPurge, deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

// Status probes the store for the health endpoint.
func (s *ItemStore) Status() string {
	n, err := s.Count("")
	switch {
	case err != nil:
		return StatusError
	case n == 0:
		return StatusEmpty
	default:
		return StatusHealthy
	}
}

// Close closes the underlying database.
func (s *ItemStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

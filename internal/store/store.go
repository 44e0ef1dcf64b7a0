// Package store provides the SQLite detail cache for pokedex.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/pokedex/internal/model"
)

// Store caches full records keyed by locator. Concrete type, not an interface.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// storedRecord is the JSON body persisted per row. Stats are keyed by wire
// name so the on-disk format does not depend on StatID numbering.
type storedRecord struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Height int            `json:"height"`
	Weight int            `json:"weight"`
	Stats  map[string]int `json:"stats"`
	Types  []string       `json:"types"`
	Sprite string         `json:"sprite,omitempty"`
}

// Info summarizes the cache contents.
type Info struct {
	Records int
	Oldest  time.Time
	Newest  time.Time
}

// Open creates a Store at dbPath, creating the schema if needed.
// ":memory:" gives a private in-memory cache; file databases use WAL mode.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pooled connection to ":memory:" would be a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		locator TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		body TEXT NOT NULL,
		fetched_at INTEGER NOT NULL -- unix seconds
	);

	CREATE INDEX IF NOT EXISTS idx_records_name ON records(name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// GetRecord returns the cached record for locator. ok is false on a miss.
func (s *Store) GetRecord(locator string) (rec model.Record, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err = s.db.QueryRow(`SELECT body FROM records WHERE locator = ?`, locator).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, false, nil
	}
	if err != nil {
		return model.Record{}, false, fmt.Errorf("get record %q: %w", locator, err)
	}

	var sr storedRecord
	if err := json.Unmarshal([]byte(body), &sr); err != nil {
		return model.Record{}, false, fmt.Errorf("decode record %q: %w", locator, err)
	}
	return sr.record(), true, nil
}

// SaveRecord upserts rec under locator.
func (s *Store) SaveRecord(locator string, rec model.Record) error {
	body, err := json.Marshal(toStored(rec))
	if err != nil {
		return fmt.Errorf("encode record %q: %w", rec.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO records (locator, name, body, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(locator) DO UPDATE SET
			name = excluded.name,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, locator, rec.Name, string(body), s.now().Unix())
	if err != nil {
		return fmt.Errorf("save record %q: %w", rec.Name, err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Info reports record count and fetch-time range.
func (s *Store) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		info           Info
		oldest, newest sql.NullInt64
	)
	err := s.db.QueryRow(`SELECT COUNT(*), MIN(fetched_at), MAX(fetched_at) FROM records`).
		Scan(&info.Records, &oldest, &newest)
	if err != nil {
		return Info{}, fmt.Errorf("cache info: %w", err)
	}
	if oldest.Valid {
		info.Oldest = time.Unix(oldest.Int64, 0)
		info.Newest = time.Unix(newest.Int64, 0)
	}
	return info, nil
}

// Clear deletes every cached record and returns how many were removed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM records`)
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PruneBefore deletes records fetched before cutoff.
func (s *Store) PruneBefore(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM records WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func toStored(r model.Record) storedRecord {
	sr := storedRecord{
		ID:     r.ID,
		Name:   r.Name,
		Height: r.Height,
		Weight: r.Weight,
		Stats:  make(map[string]int, len(r.Stats)),
		Types:  r.Types,
		Sprite: r.Sprite,
	}
	for id, v := range r.Stats {
		if id.Valid() {
			sr.Stats[id.WireName()] = v
		}
	}
	return sr
}

func (sr storedRecord) record() model.Record {
	r := model.Record{
		ID:     sr.ID,
		Name:   sr.Name,
		Height: sr.Height,
		Weight: sr.Weight,
		Stats:  make(map[model.StatID]int, len(sr.Stats)),
		Types:  sr.Types,
		Sprite: sr.Sprite,
	}
	for wire, v := range sr.Stats {
		if id, ok := model.ParseStatID(wire); ok {
			r.Stats[id] = v
		}
	}
	return r
}

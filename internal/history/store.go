// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the set of already-downloaded DOIs so repeated
// runs are idempotent.
package history

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/refharvest/pkg/types"
)

// Store is the download history: a SQLite file at the batch root, mirrored
// in memory for lock-free-looking lookups. Contains never touches the
// database; Record appends durably under a mutex so concurrent workers
// serialize their writes.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entries map[string]types.HistoryEntry
}

// Open opens or creates the history database at path and loads every entry
// into memory.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, entries: make(map[string]types.HistoryEntry)}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS history (
		doi TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		downloaded_at TEXT NOT NULL,
		source_kind TEXT NOT NULL
	)`)
	return err
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT doi, file_path, downloaded_at, source_kind FROM history`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e types.HistoryEntry
		var ts, kind string
		if err := rows.Scan(&e.DOI, &e.FilePath, &ts, &kind); err != nil {
			return err
		}
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.DownloadedAt = t
		}
		e.SourceKind = types.SourceKind(kind)
		s.entries[e.DOI] = e
	}
	return rows.Err()
}

// Contains reports whether doi already has a history entry. It is a pure
// memory lookup; a hit lets the coordinator skip a record with zero
// network I/O.
func (s *Store) Contains(doi string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[doi]
	return ok
}

// Get returns the entry for doi, if present.
func (s *Store) Get(doi string) (types.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[doi]
	return e, ok
}

// Record appends an entry, persisting it immediately. A second entry for
// the same DOI replaces the first, keeping the one-entry-per-DOI
// invariant.
func (s *Store) Record(e types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO history (doi, file_path, downloaded_at, source_kind)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(doi) DO UPDATE SET
			file_path=excluded.file_path,
			downloaded_at=excluded.downloaded_at,
			source_kind=excluded.source_kind`,
		e.DOI, e.FilePath, e.DownloadedAt.UTC().Format(time.RFC3339Nano), string(e.SourceKind),
	)
	if err != nil {
		return fmt.Errorf("recording history for %s: %w", e.DOI, err)
	}
	s.entries[e.DOI] = e
	return nil
}

// Entries returns every history entry ordered by download time.
func (s *Store) Entries() []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DownloadedAt.Equal(out[j].DownloadedAt) {
			return out[i].DOI < out[j].DOI
		}
		return out[i].DownloadedAt.Before(out[j].DownloadedAt)
	})
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

package snapshot

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OutOfRangeError is returned by Store.Get when the requested index does
// not exist. Length is the current size of the list, matching spec.md's
// requirement that 404 details mention the current length.
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range, length: %d", e.Index, e.Length)
}

// SearchField selects which view(s) a search matches against.
type SearchField string

const (
	SearchUser    SearchField = "user_view"
	SearchCommand SearchField = "command_view"
	SearchBoth    SearchField = "both"
)

// Result is one row returned from Store.Search, numbered by append order
// (0-based), most-recent-first.
type Result struct {
	ID       int `json:"id"`
	Snapshot Snapshot `json:"snapshot"`
}

// Store is a concurrent-safe, append-only, indexed and searchable list of
// Snapshot rows. It is backed by an embedded single-file (or in-memory)
// SQLite database, mirroring the original Python implementation's
// listsrv.py, which gave each history list its own temp-file sqlite3
// database.
type Store struct {
	db *sql.DB
}

// Open creates a Store backed by the given SQLite DSN. InMemory passes
// "file::memory:" for a private store that lives only for the process
// lifetime, per spec.md's non-goal of persistence across processes.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid pool contention on :memory:

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL NOT NULL,
		columns INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		user_view TEXT NOT NULL,
		command_view TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db}, nil
}

// InMemory opens a Store backed by a private in-memory SQLite database.
func InMemory() (*Store, error) {
	return Open("file::memory:")
}

// Close releases the store's resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds a snapshot to the end of the list and returns the new
// length.
func (s *Store) Append(snap Snapshot) (int, error) {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (ts, columns, lines, user_view, command_view) VALUES (?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.Columns, snap.Lines, snap.UserView, snap.CommandView,
	)
	if err != nil {
		return 0, fmt.Errorf("append snapshot: %w", err)
	}
	return s.Len()
}

// Len returns the current number of stored snapshots.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Get returns the snapshot at index i. i >= 0 is zero-based from the
// front; i < 0 is one-based from the end (-1 is the most recently
// appended snapshot). Returns *OutOfRangeError if i is not a valid index.
func (s *Store) Get(i int) (Snapshot, error) {
	length, err := s.Len()
	if err != nil {
		return Snapshot{}, err
	}

	var row *sql.Row
	if i >= 0 {
		row = s.db.QueryRow(
			`SELECT ts, columns, lines, user_view, command_view FROM snapshots ORDER BY id ASC LIMIT 1 OFFSET ?`, i)
	} else {
		row = s.db.QueryRow(
			`SELECT ts, columns, lines, user_view, command_view FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?`, -i-1)
	}

	var snap Snapshot
	if err := row.Scan(&snap.Timestamp, &snap.Columns, &snap.Lines, &snap.UserView, &snap.CommandView); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, &OutOfRangeError{Index: i, Length: length}
		}
		return Snapshot{}, fmt.Errorf("get snapshot %d: %w", i, err)
	}
	return snap, nil
}

// Search returns up to limit snapshots whose user_view and/or
// command_view contain pattern as a case-sensitive substring, ordered
// most-recent-first. limit <= 0 defaults to 10.
func (s *Store) Search(pattern string, where SearchField, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	// SQLite's LIKE is case-insensitive for ASCII by default, but spec.md
	// requires case-sensitive substring matching, so match with instr()
	// (binary, case-sensitive) rather than LIKE.
	var clause string
	var args []any
	switch where {
	case SearchUser:
		clause = "instr(user_view, ?) > 0"
		args = append(args, pattern)
	case SearchCommand:
		clause = "instr(command_view, ?) > 0"
		args = append(args, pattern)
	default: // SearchBoth
		clause = "(instr(user_view, ?) > 0 OR instr(command_view, ?) > 0)"
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(
		`SELECT id, ts, columns, lines, user_view, command_view FROM snapshots
		 WHERE %s
		 ORDER BY id DESC LIMIT ?`, clause)
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search snapshots: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var id int
		var snap Snapshot
		if err := rows.Scan(&id, &snap.Timestamp, &snap.Columns, &snap.Lines, &snap.UserView, &snap.CommandView); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, Result{ID: id - 1, Snapshot: snap})
	}
	return results, rows.Err()
}

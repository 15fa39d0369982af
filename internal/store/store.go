package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/printrelay/printrelay/internal/message"
)

var ErrPersistFailed = errors.New("persist failed")

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	title TEXT,
	img BLOB,
	msg TEXT,
	ip_address TEXT
)`

// Store is the durable, append-only sequence log. It assigns each persisted
// message its monotonic ordinal and is owned by exactly one writer, the
// worker's dispatch loop. Rows are never updated or deleted.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path with WAL journaling, so a row is
// durable once Insert returns. The caller treats any error here as fatal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; the dispatch loop is the
	// only writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing store for count queries only. The database
// is already in WAL mode, which lets this reader coexist with the worker's
// writer connection; a read-only connection must not try to set the journal
// mode itself.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite read-only: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert durably appends the message and returns its newly assigned ordinal.
// On failure the record is not numbered; the caller decides what to do with it.
func (s *Store) Insert(m *message.Message) (int64, error) {
	var img any
	if m.HasImage() {
		img = m.Image
	}

	result, err := s.db.Exec(
		"INSERT INTO messages (title, img, msg, ip_address) VALUES (?, ?, ?, ?)",
		m.Title, img, m.Body, nullable(m.SourceAddr),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	return id, nil
}

// Count returns the number of rows ever persisted. It is a best-effort
// diagnostic and returns 0 on any storage error.
func (s *Store) Count() int64 {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0
	}
	return count
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

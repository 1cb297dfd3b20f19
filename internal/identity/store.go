// Package identity persists session identity (user id, dialog id,
// session start) across client restarts. It is the only component that
// touches the underlying storage; everything else goes through Store.
package identity

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultUserID is used when no user id has ever been stored.
const DefaultUserID = 1

// Storage keys, mirroring the three keys of the original client.
const (
	keyUserID       = "user_id"
	keyDialogID     = "dialog_id"
	keySessionStart = "session_started_at"
)

// Identity is the persisted session identity. DialogID and
// SessionStartedAt are nil until a session is started.
type Identity struct {
	UserID           int
	DialogID         *int
	SessionStartedAt *time.Time
}

// Store is the identity persistence layer. A Store with no backing
// database (see Noop) turns every operation into a no-op; callers must
// tolerate a nil DialogID thereafter.
type Store struct {
	db *sql.DB
}

// Open creates a Store backed by the SQLite database at dsn, creating
// the schema if needed.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS identity (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Noop returns a Store with no persistence. All writes succeed silently
// and Identity always reports a fresh default identity.
func Noop() *Store {
	return &Store{}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Identity reads the stored identity. Missing or unreadable values fall
// back to defaults: DefaultUserID and no active session.
func (s *Store) Identity() Identity {
	ident := Identity{UserID: DefaultUserID}
	if s.db == nil {
		return ident
	}

	if v, ok := s.read(keyUserID); ok {
		if id, err := strconv.Atoi(v); err == nil {
			ident.UserID = id
		}
	}
	if v, ok := s.read(keyDialogID); ok {
		if id, err := strconv.Atoi(v); err == nil {
			ident.DialogID = &id
		}
	}
	if v, ok := s.read(keySessionStart); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			ident.SessionStartedAt = &t
		}
	}
	return ident
}

// SaveUser stores the user id.
func (s *Store) SaveUser(id int) error {
	return s.write(keyUserID, strconv.Itoa(id))
}

// SaveDialog stores the active dialog id.
func (s *Store) SaveDialog(id int) error {
	return s.write(keyDialogID, strconv.Itoa(id))
}

// SaveSessionStart stores the session start timestamp.
func (s *Store) SaveSessionStart(t time.Time) error {
	return s.write(keySessionStart, t.UTC().Format(time.RFC3339))
}

// ClearSession removes the dialog id and session start. The user id is
// preserved: identity outlives individual sessions.
func (s *Store) ClearSession() error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM identity WHERE key IN (?, ?)`, keyDialogID, keySessionStart)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ClearUser removes the stored user id. A new learner is bootstrapped
// on the next run.
func (s *Store) ClearUser() error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM identity WHERE key = ?`, keyUserID)
	if err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

func (s *Store) read(key string) (string, bool) {
	var value string
	// Missing or unreadable values degrade to defaults.
	if err := s.db.QueryRow(`SELECT value FROM identity WHERE key = ?`, key).Scan(&value); err != nil {
		return "", false
	}
	return value, true
}

func (s *Store) write(key, value string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO identity (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// applyPragmas configures SQLite for single-user client use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. TERMTUTOR_DB environment variable
// 2. $XDG_DATA_HOME/termtutor/termtutor.db
// 3. ~/.local/share/termtutor/termtutor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("TERMTUTOR_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "termtutor", "termtutor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

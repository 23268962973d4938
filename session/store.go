package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"biblioteca-admin/biblioteca"
)

// Storage keys, one row each.
const (
	keyUser          = "biblioteca_user"
	keyAuthenticated = "biblioteca_authenticated"
	keyCurrentView   = "biblioteca_current_view"
)

// DefaultView is what View returns when nothing was saved.
const DefaultView = "dashboard"

// Store persists the authenticated user and the last-active view in a
// SQLite key-value table. Every operation is best-effort: failures are
// logged and swallowed, and readers fall back to "no session". All methods
// are safe on a nil Store, so a failed Open degrades to a sessionless run.
type Store struct {
	db *sql.DB
	lg *zap.SugaredLogger
}

// Open opens (or creates) the session database at path.
func Open(path string, lg *zap.SugaredLogger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session (key TEXT PRIMARY KEY, value TEXT NOT NULL);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &Store{db: db, lg: lg}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveUser persists the authenticated user and sets the flag.
func (s *Store) SaveUser(u *biblioteca.AuthUser) {
	data, err := json.Marshal(u)
	if err != nil {
		s.log("marshal session user", err)
		return
	}
	s.set(keyUser, string(data))
	s.set(keyAuthenticated, "true")
}

// User restores the previously saved user, or nil when there is none, the
// flag is unset, or the stored blob is unreadable.
func (s *Store) User() *biblioteca.AuthUser {
	if s.get(keyAuthenticated) != "true" {
		return nil
	}
	raw := s.get(keyUser)
	if raw == "" {
		return nil
	}
	var u biblioteca.AuthUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log("unmarshal session user", err)
		return nil
	}
	return &u
}

// Clear removes the user, the flag, and the saved view.
func (s *Store) Clear() {
	s.remove(keyUser)
	s.remove(keyAuthenticated)
	s.remove(keyCurrentView)
}

// SaveView persists the last navigated admin view.
func (s *Store) SaveView(name string) {
	s.set(keyCurrentView, name)
}

// View returns the last saved view, defaulting to the dashboard.
func (s *Store) View() string {
	if v := s.get(keyCurrentView); v != "" {
		return v
	}
	return DefaultView
}

// ClearView removes only the saved view.
func (s *Store) ClearView() {
	s.remove(keyCurrentView)
}

func (s *Store) set(key, value string) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO session(key,value) VALUES(?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		s.log("session write", err)
	}
}

func (s *Store) get(key string) string {
	if s == nil || s.db == nil {
		return ""
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM session WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return ""
	}
	if err != nil {
		s.log("session read", err)
		return ""
	}
	return value
}

func (s *Store) remove(key string) {
	if s == nil || s.db == nil {
		return
	}
	if _, err := s.db.Exec(`DELETE FROM session WHERE key=?`, key); err != nil {
		s.log("session delete", err)
	}
}

func (s *Store) log(msg string, err error) {
	if s != nil && s.lg != nil {
		s.lg.Warnw(msg, "error", err)
	}
}

package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const (
	keyProjectPrefix = "project:"
	keyProjects      = "projects"
	keySettings      = "settings"
)

// DefaultMaxValueBytes caps a single stored value at roughly what a
// browser profile grants local storage.
const DefaultMaxValueBytes = 5 << 20

// DB wraps a sql.DB with snapshot-store operations.
type DB struct {
	conn *sql.DB

	// MaxValueBytes bounds a single value; writes beyond it fail with
	// domain.ErrQuota. Zero means DefaultMaxValueBytes.
	MaxValueBytes int
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) maxValueBytes() int {
	if db.MaxValueBytes > 0 {
		return db.MaxValueBytes
	}
	return DefaultMaxValueBytes
}

func (db *DB) put(tx *sql.Tx, key string, value []byte) error {
	if len(value) > db.maxValueBytes() {
		return fmt.Errorf("cache: value for %q is %d bytes: %w", key, len(value), domain.ErrQuota)
	}
	_, err := tx.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), time.Now())
	if err != nil {
		return fmt.Errorf("cache: put %q: %w", key, err)
	}
	return nil
}

func (db *DB) get(key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return []byte(value), nil
}

// SaveProject persists the snapshot and updates the project index as a
// whole-value read-modify-write within one transaction. Concurrent writers
// of the index are last-write-wins.
func (db *DB) SaveProject(slug string, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := db.put(tx, keyProjectPrefix+slug, payload); err != nil {
		return err
	}

	index, err := db.ListProjects()
	if err != nil {
		// A corrupt index should not block saving; rebuild from this entry.
		index = nil
	}
	replaced := false
	for i, p := range index {
		if p.Slug == slug {
			index[i] = snap.Project
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, snap.Project)
	}
	indexPayload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("cache: encode project index: %w", err)
	}
	if err := db.put(tx, keyProjects, indexPayload); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadProject returns the stored snapshot, or (nil, nil) when absent.
func (db *DB) LoadProject(slug string) (*models.Snapshot, error) {
	raw, err := db.get(keyProjectPrefix + slug)
	if err != nil || raw == nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("cache: corrupt snapshot for %q: %w", slug, err)
	}
	return &snap, nil
}

// DeleteProject removes the snapshot and its index entry.
func (db *DB) DeleteProject(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, keyProjectPrefix+slug); err != nil {
		return fmt.Errorf("cache: delete snapshot: %w", err)
	}

	index, err := db.ListProjects()
	if err != nil {
		index = nil
	}
	filtered := make([]*models.Project, 0, len(index))
	for _, p := range index {
		if p.Slug != slug {
			filtered = append(filtered, p)
		}
	}
	indexPayload, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("cache: encode project index: %w", err)
	}
	if err := db.put(tx, keyProjects, indexPayload); err != nil {
		return err
	}

	return tx.Commit()
}

// ListProjects returns the project index in insertion order.
func (db *DB) ListProjects() ([]*models.Project, error) {
	raw, err := db.get(keyProjects)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []*models.Project{}, nil
	}
	var index []*models.Project
	if err := json.Unmarshal(raw, &index); err != nil {
		return []*models.Project{}, fmt.Errorf("cache: corrupt project index: %w", err)
	}
	return index, nil
}

// SaveSettings persists the editor preferences blob.
func (db *DB) SaveSettings(s models.Settings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache: encode settings: %w", err)
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := db.put(tx, keySettings, payload); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSettings returns stored preferences, or defaults when nothing usable
// is stored.
func (db *DB) LoadSettings() models.Settings {
	raw, err := db.get(keySettings)
	if err != nil || raw == nil {
		return models.DefaultSettings()
	}
	var s models.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return models.DefaultSettings()
	}
	return s
}
